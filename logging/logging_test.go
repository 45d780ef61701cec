package logging

import (
	"encoding/json"
	"testing"

	"go.viam.com/test"
)

func TestLevelStrings(t *testing.T) {
	for _, level := range []Level{DEBUG, INFO, WARN, ERROR} {
		serialized := level.String()
		parsed, err := LevelFromString(serialized)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, level)
	}

	parsed, err := LevelFromString("warning")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed, test.ShouldEqual, WARN)
}

func TestLevelFromStringUnknown(t *testing.T) {
	_, err := LevelFromString("not a level")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestJSONRoundTrip(t *testing.T) {
	type allLevels struct {
		Debug Level
		Info  Level
		Warn  Level
		Error Level
	}

	levels := allLevels{DEBUG, INFO, WARN, ERROR}

	serialized, err := json.Marshal(levels)
	test.That(t, err, test.ShouldBeNil)

	var parsed allLevels
	err = json.Unmarshal(serialized, &parsed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, levels, test.ShouldResemble, parsed)
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Debugw("hello", "key", "value")
	logger.Infow("hello")
	logger.Warnw("hello")
	logger.Errorw("hello")
	child := logger.Named("child")
	child.Infow("still quiet")
}
