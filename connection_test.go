package cbstore

import "errors"

func (suite *UnitTestSuite) TestConnectFailsOverToHealthyNode() {
	driver := newTestDriver()
	driver.failing["10.0.0.1:11210"] = errors.New("connection refused")
	driver.failing["10.0.0.2:11210"] = errors.New("connection refused")

	transcoder := NewTranscoder(TranscoderOptions{})
	mgr := newConnectionManager(driver,
		[]string{"10.0.0.1:11210", "10.0.0.2:11210", "10.0.0.3:11210"},
		AuthCredentials{Username: "tester", Password: "hunter2"},
		"default", transcoder)

	session, bucket, err := mgr.Connect()
	suite.Require().NoError(err)
	suite.Require().NotNil(session)
	suite.Require().NotNil(bucket)

	// The attempt order is randomized, but the healthy node must have been
	// reached and the corrected transcoder installed on its bucket.
	suite.Assert().Contains(driver.attempts, "10.0.0.3:11210")
	suite.Assert().Same(transcoder, driver.bucket.transcoder)
	suite.Assert().NoError(mgr.LastStatus())
}

func (suite *UnitTestSuite) TestConnectAllNodesFail() {
	connRefused := errors.New("connection refused")

	driver := newTestDriver()
	driver.failing["10.0.0.1:11210"] = connRefused
	driver.failing["10.0.0.2:11210"] = connRefused
	driver.failing["10.0.0.3:11210"] = connRefused

	mgr := newConnectionManager(driver,
		[]string{"10.0.0.1:11210", "10.0.0.2:11210", "10.0.0.3:11210"},
		AuthCredentials{}, "default", NewTranscoder(TranscoderOptions{}))

	session, bucket, err := mgr.Connect()
	suite.Assert().Nil(session)
	suite.Assert().Nil(bucket)
	suite.Assert().ErrorIs(err, connRefused)
	suite.Assert().ErrorIs(mgr.LastStatus(), connRefused)
	suite.Assert().Len(driver.attempts, 3)
}

func (suite *UnitTestSuite) TestConnectEmptyNodeList() {
	mgr := newConnectionManager(newTestDriver(), nil,
		AuthCredentials{}, "default", NewTranscoder(TranscoderOptions{}))

	_, _, err := mgr.Connect()
	suite.Assert().ErrorIs(err, ErrNoHosts)
	suite.Assert().ErrorIs(mgr.LastStatus(), ErrNoHosts)
}

func (suite *UnitTestSuite) TestConnectBucketOpenFailureClosesSession() {
	bucketGone := errors.New("no such bucket")

	driver := newTestDriver()
	driver.bucketErr = bucketGone

	mgr := newConnectionManager(driver, []string{"10.0.0.1:11210"},
		AuthCredentials{}, "missing", NewTranscoder(TranscoderOptions{}))

	_, _, err := mgr.Connect()
	suite.Assert().ErrorIs(err, bucketGone)
	suite.Require().Len(driver.sessions, 1)
	suite.Assert().True(driver.sessions[0].closed)
}

func (suite *UnitTestSuite) TestConnectionManagerClientID() {
	mgr := newConnectionManager(newTestDriver(), []string{"10.0.0.1:11210"},
		AuthCredentials{}, "default", NewTranscoder(TranscoderOptions{}))

	suite.Assert().NotEmpty(mgr.ClientID())
}
