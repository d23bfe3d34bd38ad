package populate

import (
	"fmt"
	"path/filepath"

	internalUtils "github.com/RudraSwat/ubuntu-image/internal/utils"
	"github.com/RudraSwat/ubuntu-image/pkg/gadget"
	"github.com/spectrocloud-labs/herd"
)

// State carries everything the rootfs population phase needs. It is filled in
// once by the caller and treated as read-only by the steps.
type State struct {
	Rootdir       string // destination rootfs of the image, must exist
	FilesystemSrc string // pre-built rootfs tree to copy in
	ChrootSrc     string // chroot produced by the rootfs build, to relocate in
	CloudInitSeed string // cloud-init user-data source, empty disables seeding
	StageDirs     []string
	OutputDir     string // where the package manifest ends up
	Gadget        *gadget.Layout
}

func (s *State) path(p ...string) string {
	return filepath.Join(append([]string{s.Rootdir}, p...)...)
}

// WriteDAG writes the dag.
func (s *State) WriteDAG(g *herd.Graph) (out string) {
	for i, layer := range g.Analyze() {
		out += fmt.Sprintf("%d.\n", i+1)
		for _, op := range layer {
			if op.Error != nil {
				out += fmt.Sprintf(" <%s> (error: %s) (background: %t) (weak: %t) (run: %t)\n", op.Name, op.Error.Error(), op.Background, op.WeakDeps, op.Executed)
			} else {
				out += fmt.Sprintf(" <%s> (background: %t) (weak: %t) (run: %t)\n", op.Name, op.Background, op.WeakDeps, op.Executed)
			}
		}
	}
	return
}

// LogIfError will log if there is an error with the given context as message
// Context can be empty.
func (s *State) LogIfError(e error, msgContext string) {
	if e != nil {
		internalUtils.Log.Err(e).Msg(msgContext)
	}
}

// LogIfErrorAndReturn will log if there is an error with the given context as message
// Context can be empty
// Will also return the error.
func (s *State) LogIfErrorAndReturn(e error, msgContext string) error {
	if e != nil {
		internalUtils.Log.Err(e).Msg(msgContext)
	}
	return e
}
