package executor

import (
	"context"
	"crypto/md5" //nolint:gosec // conffile fingerprinting matches the declared Conffiles checksum format, not a security boundary
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"opkg/internal/adapters"
	"opkg/internal/control"
	"opkg/internal/core"
	"opkg/internal/intercept"
	"opkg/internal/types"
)

var maintainerScriptNames = []string{"preinst", "postinst", "prerm", "postrm"}

// install unpacks a brand-new solvable: preinst install, extract,
// write info files, register it in the installed repo.
func (e *Executor) install(step types.Step, archivePath string, states map[string]types.PackageState, runner *intercept.Runner) error {
	sv, ok := e.Pool.Solvable(step.SolvableID)
	if !ok {
		return errbuilder.New().WithCode(errbuilder.CodeNotFound).WithMsg("unknown solvable in transaction step")
	}

	controlFiles, err := e.Archive.ExtractControl(archivePath)
	if err != nil {
		return err
	}
	scriptPaths, err := e.persistMaintainerScripts(sv.Name, controlFiles)
	if err != nil {
		return err
	}

	if err := e.runMaintainerScript(scriptPaths, "preinst", []string{"install"}, runner); err != nil {
		return err
	}

	paths, err := e.Archive.ExtractData(archivePath, e.Dest.RootDir)
	if err != nil {
		return err
	}
	if err := e.writeInfoFiles(sv, paths); err != nil {
		return err
	}

	if _, _, err := e.Pool.AddSolvable(core.InstalledRepoName, sv); err != nil {
		return err
	}
	states[sv.Name] = types.PackageState{
		Want:   types.WantInstall,
		Flag:   types.NewFlagSet(types.FlagOk),
		Status: types.StatusUnpacked,
	}
	return nil
}

// replace unpacks sv over an already-installed package (upgrade,
// downgrade, reinstall, or a plain changed re-sync), preserving any
// conffile the administrator has locally modified (spec §4.7 testable
// property: "a conffile whose on-disk content no longer matches its
// declared checksum survives an upgrade unchanged") and leaving the
// new package's version of that conffile alongside it as "<path>-opkg"
// rather than discarding it.
func (e *Executor) replace(step types.Step, archivePath string, states map[string]types.PackageState, runner *intercept.Runner) error {
	sv, ok := e.Pool.Solvable(step.SolvableID)
	if !ok {
		return errbuilder.New().WithCode(errbuilder.CodeNotFound).WithMsg("unknown solvable in transaction step")
	}
	var oldConffiles []types.Conffile
	if step.ObsoletedID != 0 {
		if old, ok := e.Pool.Solvable(step.ObsoletedID); ok {
			oldConffiles = old.Conffiles
		}
	}

	controlFiles, err := e.Archive.ExtractControl(archivePath)
	if err != nil {
		return err
	}
	scriptPaths, err := e.persistMaintainerScripts(sv.Name, controlFiles)
	if err != nil {
		return err
	}
	if err := e.runMaintainerScript(scriptPaths, "preinst", []string{"upgrade"}, runner); err != nil {
		return err
	}

	preserved, err := e.backupModifiedConffiles(oldConffiles)
	if err != nil {
		return err
	}

	paths, err := e.Archive.ExtractData(archivePath, e.Dest.RootDir)
	if err != nil {
		return err
	}
	if err := e.restoreConffiles(preserved); err != nil {
		return err
	}
	if err := e.writeInfoFiles(sv, paths); err != nil {
		return err
	}

	if _, _, err := e.Pool.AddSolvable(core.InstalledRepoName, sv); err != nil {
		return err
	}
	states[sv.Name] = types.PackageState{
		Want:   types.WantInstall,
		Flag:   types.NewFlagSet(types.FlagOk),
		Status: types.StatusUnpacked,
	}
	return nil
}

// erase removes an installed package's files and drops it from the
// installed repo. Conffiles are left behind (status becomes
// config-files) unless the job requested a purge.
func (e *Executor) erase(step types.Step, states map[string]types.PackageState, runner *intercept.Runner) error {
	sv, ok := e.Pool.Solvable(step.SolvableID)
	if !ok {
		return errbuilder.New().WithCode(errbuilder.CodeNotFound).WithMsg("unknown solvable in transaction step")
	}

	scriptPaths := e.installedScriptPaths(sv.Name)
	if err := e.runMaintainerScript(scriptPaths, "prerm", []string{"remove"}, runner); err != nil {
		return err
	}

	paths, _ := readListFile(e.Dest.ListPath(sv.Name))
	purge := states[sv.Name].Want == types.WantPurge
	for i := len(paths) - 1; i >= 0; i-- {
		target := filepath.Join(e.Dest.RootDir, paths[i])
		if !purge && isConffile(sv.Conffiles, paths[i]) {
			continue
		}
		os.Remove(target) // directories left behind empty are swept by a later prune pass
	}

	if err := e.runMaintainerScript(scriptPaths, "postrm", []string{"remove"}, runner); err != nil {
		return err
	}

	os.Remove(e.Dest.ListPath(sv.Name))
	os.Remove(e.Dest.ControlPath(sv.Name))
	for _, name := range maintainerScriptNames {
		os.Remove(filepath.Join(e.Dest.InfoDir, sv.Name+"."+name))
	}
	e.Pool.RemoveInstalled(sv.ID)

	status := types.StatusNotInstalled
	if !purge && len(sv.Conffiles) > 0 {
		status = types.StatusConfigFiles
	}
	want := types.WantDeinstall
	if purge {
		want = types.WantPurge
	}
	states[sv.Name] = types.PackageState{Want: want, Flag: types.NewFlagSet(), Status: status}
	return nil
}

func isConffile(conffiles []types.Conffile, path string) bool {
	want := "/" + strings.TrimPrefix(path, "/")
	for _, c := range conffiles {
		if "/"+strings.TrimPrefix(c.Path, "/") == want {
			return true
		}
	}
	return false
}

func (e *Executor) writeInfoFiles(sv types.Solvable, paths []string) error {
	if err := os.MkdirAll(e.Dest.InfoDir, 0o755); err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to create info directory").WithCause(err)
	}

	listFile, err := os.Create(e.Dest.ListPath(sv.Name))
	if err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to write package list file").WithCause(err)
	}
	defer listFile.Close()
	for _, p := range paths {
		if _, err := io.WriteString(listFile, p+"\n"); err != nil {
			return err
		}
	}

	controlFile, err := os.Create(e.Dest.ControlPath(sv.Name))
	if err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to write package control file").WithCause(err)
	}
	defer controlFile.Close()
	stanza := control.RenderSolvable(sv, types.PackageState{Want: types.WantInstall, Flag: types.NewFlagSet(types.FlagOk), Status: types.StatusUnpacked})
	return control.Write(controlFile, stanza)
}

// persistMaintainerScripts writes every non-empty maintainer script
// control extracted to the info directory as <name>.<script>, so a
// later configure or erase step (run in a different process
// invocation, long after archivePath may have been cleaned from the
// download cache) has something to execute.
func (e *Executor) persistMaintainerScripts(pkgName string, controlFiles map[string]string) (map[string]string, error) {
	if err := os.MkdirAll(e.Dest.InfoDir, 0o755); err != nil {
		return nil, errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to create info directory").WithCause(err)
	}
	paths := map[string]string{}
	for _, name := range maintainerScriptNames {
		content, ok := controlFiles[name]
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		path := filepath.Join(e.Dest.InfoDir, pkgName+"."+name)
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			return nil, errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to persist maintainer script: " + name).WithCause(err)
		}
		paths[name] = path
	}
	return paths, nil
}

// installedScriptPaths returns the persisted maintainer script paths
// for an already-unpacked package, skipping any that were never
// shipped.
func (e *Executor) installedScriptPaths(pkgName string) map[string]string {
	paths := map[string]string{}
	for _, name := range maintainerScriptNames {
		path := filepath.Join(e.Dest.InfoDir, pkgName+"."+name)
		if _, err := os.Stat(path); err == nil {
			paths[name] = path
		}
	}
	return paths
}

func (e *Executor) runMaintainerScript(scriptPaths map[string]string, name string, args []string, runner *intercept.Runner) error {
	path, ok := scriptPaths[name]
	if !ok {
		return nil
	}
	env := runner.Env(e.baseScriptEnv())
	code, err := e.Scripts.Run(context.Background(), path, args, env)
	if err != nil {
		return err
	}
	if code != 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(name + " script exited with status " + strconv.Itoa(code))
	}
	return nil
}

// baseEnvFunc builds the environment every maintainer script starts
// from: adapters.BaseEnv (PKG_ROOT plus the parent's PATH and TMPDIR).
var baseEnvFunc = adapters.BaseEnv

func (e *Executor) baseScriptEnv() []string {
	return baseEnvFunc(e.Dest.RootDir)
}

type preservedConffile struct {
	path string
	data []byte
	mode os.FileMode
}

// backupModifiedConffiles reads every declared conffile whose on-disk
// MD5 no longer matches the installed package's pristine checksum, so
// the administrator's edits can be written back after extraction while
// the newly unpacked copy is kept beside them as <path>-opkg.
func (e *Executor) backupModifiedConffiles(conffiles []types.Conffile) ([]preservedConffile, error) {
	var preserved []preservedConffile
	for _, c := range conffiles {
		full := filepath.Join(e.Dest.RootDir, c.Path)
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		if fileMD5(data) == c.MD5 {
			continue // unmodified, let the new package's copy land
		}
		preserved = append(preserved, preservedConffile{path: c.Path, data: data, mode: info.Mode()})
	}
	return preserved, nil
}

// restoreConffiles puts each preserved admin copy back in place. The
// new package's just-extracted version is never simply discarded: it
// is renamed aside to a "<path>-opkg" sibling first, so the
// administrator can diff or adopt it, then the admin's edited copy is
// written back to the original path.
func (e *Executor) restoreConffiles(preserved []preservedConffile) error {
	for _, p := range preserved {
		full := filepath.Join(e.Dest.RootDir, p.path)
		sibling := full + "-opkg"
		if err := os.Rename(full, sibling); err != nil && !os.IsNotExist(err) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to preserve newly unpacked conffile: " + p.path).
				WithCause(err)
		}
		if err := os.WriteFile(full, p.data, p.mode); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to restore locally modified conffile: " + p.path).
				WithCause(err)
		}
	}
	return nil
}

func fileMD5(data []byte) string {
	h := md5.New() //nolint:gosec // see import comment
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
