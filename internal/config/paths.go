package config

import "path/filepath"

// Paths resolves the on-disk layout under the server data directory:
//
//	<data>/colab.json            settings
//	<data>/colab.db              session store
//	<data>/repo                  the single git working tree
//	<data>/sessions/<id>/        per-session artifacts (log, patches)
type Paths struct {
	DataDir string
}

func NewPaths(dataDir string) Paths {
	return Paths{DataDir: dataDir}
}

func (p Paths) SettingsFile() string { return filepath.Join(p.DataDir, "colab.json") }
func (p Paths) DBFile() string       { return filepath.Join(p.DataDir, "colab.db") }
func (p Paths) RepoDir() string      { return filepath.Join(p.DataDir, "repo") }
func (p Paths) SessionsDir() string  { return filepath.Join(p.DataDir, "sessions") }

func (p Paths) SessionDir(id string) string {
	return filepath.Join(p.SessionsDir(), id)
}

func (p Paths) SessionLogFile(id string) string {
	return filepath.Join(p.SessionDir(id), "tool.log")
}

func (p Paths) SessionPatchFile(id string) string {
	return filepath.Join(p.SessionDir(id), "session.patch")
}

func (p Paths) SessionCheckpointFile(id string) string {
	return filepath.Join(p.SessionDir(id), "checkpoint.patch")
}
