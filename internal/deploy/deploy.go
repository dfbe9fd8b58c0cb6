// Package deploy installs a bundle on the attached device, launches it and
// follows its log.
package deploy

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/gookit/color"

	"github.com/goplus/cargo-sdl-apk/internal/config"
)

// Device is the device bridge as seen by Runner. x/adb implements it.
type Device interface {
	Install(ctx context.Context, bundle string) error
	ForceStop(ctx context.Context, appID string) error
	Start(ctx context.Context, appID string) error
	Pid(ctx context.Context, appID string) (int, error)
	Logcat(ctx context.Context, pid int) error
}

// Runner runs an installed application.
type Runner struct {
	Device Device
}

// Run installs bundle, restarts the application and streams its log until
// ctx is cancelled.
func (r *Runner) Run(ctx context.Context, bundle string, id config.Identity) error {
	glog.Infof("Installing %s", bundle)
	if err := r.Device.Install(ctx, bundle); err != nil {
		return fmt.Errorf("failed to install %s: %w", bundle, err)
	}
	if err := r.Device.ForceStop(ctx, id.AppID); err != nil {
		return fmt.Errorf("failed to stop %s: %w", id.AppID, err)
	}
	if err := r.Device.Start(ctx, id.AppID); err != nil {
		return fmt.Errorf("failed to start %s: %w", id.AppID, err)
	}
	pid, err := r.Device.Pid(ctx, id.AppID)
	if err != nil {
		return err
	}
	color.Info.Printf("Launched with PID: %d\n", pid)
	return r.Device.Logcat(ctx, pid)
}
