package cbstore

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// ConnectionManager establishes the cluster session and bucket handle the
// document store operates on, failing over across candidate nodes until one
// accepts the connection.
type ConnectionManager struct {
	driver     Driver
	nodes      []string
	creds      AuthCredentials
	bucketName string
	clientID   string
	transcoder Transcoder

	lastLock   sync.Mutex
	lastStatus error
}

func newConnectionManager(driver Driver, nodes []string, creds AuthCredentials, bucketName string, transcoder Transcoder) *ConnectionManager {
	return &ConnectionManager{
		driver:     driver,
		nodes:      append([]string(nil), nodes...),
		creds:      creds,
		bucketName: bucketName,
		clientID:   uuid.NewString(),
		transcoder: transcoder,
	}
}

// ClientID uniquely identifies this connection manager instance, for
// correlating log output.
func (mgr *ConnectionManager) ClientID() string {
	return mgr.clientID
}

// LastStatus returns the error recorded by the most recent connection
// attempt, or nil if that attempt succeeded.
func (mgr *ConnectionManager) LastStatus() error {
	mgr.lastLock.Lock()
	defer mgr.lastLock.Unlock()
	return mgr.lastStatus
}

func (mgr *ConnectionManager) recordStatus(err error) {
	mgr.lastLock.Lock()
	mgr.lastStatus = err
	mgr.lastLock.Unlock()
}

// Connect attempts to establish a session and open the target bucket. The
// candidate order is randomized to spread connection load, then each node is
// tried in turn and the first success wins. When every candidate fails the
// last connection error is returned; a session is never handed back unless
// the bucket was opened and the corrected transcoder installed on it.
func (mgr *ConnectionManager) Connect() (Session, Bucket, error) {
	if len(mgr.nodes) == 0 {
		mgr.recordStatus(ErrNoHosts)
		return nil, nil, ErrNoHosts
	}

	nodes := append([]string(nil), mgr.nodes...)
	rand.Shuffle(len(nodes), func(i, j int) {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	})

	var lastErr error
	for _, address := range nodes {
		session, err := mgr.driver.OpenSession(address, mgr.creds)
		if err != nil {
			logWarnf("Failed to open session to %s: %v", redactMetaData(address), err)
			mgr.recordStatus(err)
			lastErr = err
			continue
		}

		bucket, err := session.OpenBucket(mgr.bucketName)
		if err != nil {
			logWarnf("Failed to open bucket %s on %s: %v",
				redactMetaData(mgr.bucketName), redactMetaData(address), err)
			mgr.recordStatus(err)
			lastErr = err

			if closeErr := session.Close(); closeErr != nil {
				logDebugf("Failed to close session to %s: %v", redactMetaData(address), closeErr)
			}
			continue
		}

		// Route every subsequent read through the corrected decoder.
		bucket.SetTranscoder(mgr.transcoder)

		logInfof("Connected to %s (client %s)", redactMetaData(address), mgr.clientID)
		mgr.recordStatus(nil)
		return session, bucket, nil
	}

	return nil, nil, lastErr
}
