package utils

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/mudler/yip/pkg/executor"
	"github.com/twpayne/go-vfs/v4"
	"gopkg.in/yaml.v3"
)

// RunStage executes the yip configs found in the given directories for the
// named stage, plus its before/after companions. Image builds use this to let
// gadget or project trees customize the freshly populated rootfs.
func RunStage(stage string, dirs []string) error {
	var allErrors, err error

	yip := executor.NewExecutor(executor.WithLogger(Log))
	c := BuildConsole{}

	stageBefore := fmt.Sprintf("%s.before", stage)
	stageAfter := fmt.Sprintf("%s.after", stage)

	for _, s := range []string{stageBefore, stage, stageAfter} {
		err = yip.Run(s, vfs.OSFS, c, dirs...)
		if err != nil {
			allErrors = checkYAMLError(allErrors, err)
		}
	}

	return allErrors
}

func onlyYAMLPartialErrors(er error) bool {
	var merr *multierror.Error
	if errors.As(er, &merr) {
		for _, e := range merr.Errors {
			// TypeError is thrown when it is possible to read the yaml partially
			// XXX: Seems errors.Is and errors.As are not working as expected here.
			// Even if the underlying type is yaml.TypeError.
			var d *yaml.TypeError
			if fmt.Sprintf("%T", e) != fmt.Sprintf("%T", d) {
				return false
			}
		}
	}
	return true
}

func checkYAMLError(allErrors, err error) error {
	if !onlyYAMLPartialErrors(err) {
		// absorb errors only when they are partial YAML unmarshalling ones
		allErrors = multierror.Append(allErrors, err)
	}
	return allErrors
}
