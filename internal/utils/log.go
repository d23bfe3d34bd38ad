package utils

import (
	"os"

	"github.com/RudraSwat/ubuntu-image/internal/constants"
	"github.com/kairos-io/kairos-sdk/types"
)

// Log is the logger shared by every build step.
var Log types.KairosLogger

func SetLogger() {
	level := "info"

	if os.Getenv("UBUNTU_IMAGE_DEBUG") != "" {
		level = "debug"
	}
	_ = os.MkdirAll(constants.LogDir, os.ModeDir|os.ModePerm)

	Log = types.NewKairosLoggerWithExtraDirs("ubuntu-image", level, false, constants.LogDir)
}
