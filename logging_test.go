package cbstore

import (
	"bytes"
	"log"
)

func (suite *UnitTestSuite) TestLogRedaction() {
	var logs bytes.Buffer
	gologger := log.New(&logs, "", 0)
	sdklogger := defaultLogger{
		GoLogger: gologger,
		Level:    LogDebug,
	}

	if suite.Assert().NoError(sdklogger.Log(LogDebug, 1, "%s", redactUserData("sensitive user data"))) {
		suite.Assert().Equal("<ud>sensitive user data</ud>\n", logs.String())
	}

	logs.Reset()

	if suite.Assert().NoError(sdklogger.Log(LogDebug, 1, "%s", redactMetaData("sensitive meta data"))) {
		suite.Assert().Equal("<md>sensitive meta data</md>\n", logs.String())
	}
}

func (suite *UnitTestSuite) TestLogLevelFilter() {
	var logs bytes.Buffer
	sdklogger := defaultLogger{
		GoLogger: log.New(&logs, "", 0),
		Level:    LogWarn,
	}

	suite.Assert().NoError(sdklogger.Log(LogDebug, 1, "filtered out"))
	suite.Assert().Empty(logs.String())

	suite.Assert().NoError(sdklogger.Log(LogError, 1, "kept"))
	suite.Assert().Equal("kept\n", logs.String())
}
