package process

import (
	"os"
	"os/exec"

	"hy2core/internal/engine"
)

// Preflight checks that the binary resolves and the work directory is
// usable. It does not mutate state and is safe to call at any time.
func (e *Engine) Preflight() engine.PreflightReport {
	var r engine.PreflightReport
	add := func(name string, err error, okMsg string) {
		c := engine.Check{Name: name, OK: err == nil, Message: okMsg}
		if err != nil {
			c.Message = err.Error()
			r.Errors = append(r.Errors, name+": "+err.Error())
		}
		r.Checks = append(r.Checks, c)
	}

	path, err := exec.LookPath(e.opts.Bin)
	add("bin", err, path)

	if e.opts.ReloadSignal != "" {
		_, err := parseSignal(e.opts.ReloadSignal)
		add("reload_signal", err, e.opts.ReloadSignal)
	}

	dir := e.opts.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	fi, err := os.Stat(dir)
	if err == nil && !fi.IsDir() {
		err = &os.PathError{Op: "stat", Path: dir, Err: os.ErrInvalid}
	}
	add("work_dir", err, dir)

	r.OK = len(r.Errors) == 0
	return r
}

var _ engine.Preflighter = (*Engine)(nil)
