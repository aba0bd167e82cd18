package panel

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/bigmoostache/tui-sub000/hashid"
)

// subprocessTimeout bounds every subprocess a refresh hook runs per §5's
// "explicit timeouts (run-with-timeout helper)" requirement.
const subprocessTimeout = 30 * time.Second

func runCommand(dir string, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), subprocessTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%s: timed out after %s", name, subprocessTimeout)
	}
	return string(out), err
}

func init() {
	Register(TypeFile, fileHooks{})
	Register(TypeTree, treeHooks{})
	Register(TypeGlob, globHooks{})
	Register(TypeGrep, grepHooks{})
	Register(TypeTmux, tmuxHooks{})
	Register(TypeGit, gitHooks{})
	Register(TypeGitResult, commandResultHooks{})
	Register(TypeGithubResult, commandResultHooks{})
	Register(TypeMemory, memoryHooks{})
	Register(TypeConsole, consoleHooks{})
	Register(TypeLogs, logsHooks{})
	Register(TypeConversationHistory, conversationHistoryHooks{})
	Register(TypeSkill, skillHooks{})
}

// ---- File -------------------------------------------------------------

type fileHooks struct{}

func (fileHooks) BuildRequest(e *Element) (Request, bool) {
	path, _ := e.Metadata["file_path"].(string)
	if path == "" {
		return Request{}, false
	}
	return Request{
		ContextID: e.UID.String(),
		Type:      TypeFile,
		Data:      RefreshFile{Path: path, CurrentSourceHash: e.SourceHash},
	}, true
}

func (fileHooks) Refresh(req Request) Update {
	data := req.Data.(RefreshFile)
	bytes, err := os.ReadFile(data.Path)
	if err != nil {
		return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
			Content: fmt.Sprintf("[error reading %s: %v]", data.Path, err), Err: err}
	}
	hash := hashid.Hash(bytes)
	if hash == data.CurrentSourceHash {
		return Update{Kind: UpdateUnchanged, ContextID: req.ContextID}
	}
	return Update{
		Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
		Content: string(bytes), NewSourceHash: hash,
	}
}

func (fileHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	return applyContent(u, e, mods)
}

// ---- Tree ---------------------------------------------------------------

type treeHooks struct{}

func (treeHooks) BuildRequest(e *Element) (Request, bool) {
	base, _ := e.Metadata["base_path"].(string)
	if base == "" {
		base = "."
	}
	filter, _ := e.Metadata["filter"].(string)
	var open []string
	if raw, ok := e.Metadata["open_folders"].([]string); ok {
		open = raw
	}
	return Request{
		ContextID: e.UID.String(), Type: TypeTree,
		Data: RefreshTree{Filter: filter, OpenFolders: open, BasePath: base},
	}, true
}

func (treeHooks) Refresh(req Request) Update {
	data := req.Data.(RefreshTree)
	var b strings.Builder
	err := filepath.WalkDir(data.BasePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == data.BasePath {
			return nil
		}
		rel, _ := filepath.Rel(data.BasePath, path)
		if strings.HasPrefix(rel, ".git") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if data.Filter != "" && !strings.Contains(rel, data.Filter) {
			return nil
		}
		if d.IsDir() {
			fmt.Fprintf(&b, "%s/\n", rel)
		} else {
			fmt.Fprintf(&b, "%s\n", rel)
		}
		return nil
	})
	if err != nil {
		return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
			Content: fmt.Sprintf("[error walking %s: %v]", data.BasePath, err), Err: err}
	}
	return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true, Content: b.String()}
}

func (treeHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	return applyContent(u, e, mods)
}

// ---- Glob -----------------------------------------------------------------

type globHooks struct{}

func (globHooks) BuildRequest(e *Element) (Request, bool) {
	pattern, _ := e.Metadata["glob_pattern"].(string)
	if pattern == "" {
		return Request{}, false
	}
	base, _ := e.Metadata["base_path"].(string)
	return Request{ContextID: e.UID.String(), Type: TypeGlob, Data: RefreshGlob{Pattern: pattern, BasePath: base}}, true
}

func (globHooks) Refresh(req Request) Update {
	data := req.Data.(RefreshGlob)
	pattern := data.Pattern
	if data.BasePath != "" {
		pattern = filepath.Join(data.BasePath, pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
			Content: fmt.Sprintf("[glob error: %v]", err), Err: err}
	}
	return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true, Content: strings.Join(matches, "\n")}
}

func (globHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	return applyContent(u, e, mods)
}

// ---- Grep -----------------------------------------------------------------

type grepHooks struct{}

func (grepHooks) BuildRequest(e *Element) (Request, bool) {
	pattern, _ := e.Metadata["pattern"].(string)
	if pattern == "" {
		return Request{}, false
	}
	base, _ := e.Metadata["base_path"].(string)
	caseSensitive, _ := e.Metadata["case_sensitive"].(bool)
	return Request{ContextID: e.UID.String(), Type: TypeGrep,
		Data: RefreshGrep{Pattern: pattern, BasePath: base, CaseSensitive: caseSensitive}}, true
}

func (grepHooks) Refresh(req Request) Update {
	data := req.Data.(RefreshGrep)
	args := []string{"-rn"}
	if !data.CaseSensitive {
		args = append(args, "-i")
	}
	args = append(args, data.Pattern)
	dir := data.BasePath
	if dir == "" {
		dir = "."
	}
	args = append(args, dir)
	out, err := runCommand("", "grep", args...)
	// grep exits non-zero on no-matches; that is not a failure worth
	// surfacing as an error per §7 ("Cache failure... panel continues to
	// render"), so only a genuine execution error produces an error kind.
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
				Content: fmt.Sprintf("[grep error: %v]", err), Err: err}
		}
	}
	return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true, Content: out}
}

func (grepHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	return applyContent(u, e, mods)
}

// ---- Tmux -------------------------------------------------------------

type tmuxHooks struct{}

func (tmuxHooks) BuildRequest(e *Element) (Request, bool) {
	pane, _ := e.Metadata["tmux_pane_id"].(string)
	if pane == "" {
		return Request{}, false
	}
	lines, _ := e.Metadata["lines"].(int)
	if lines <= 0 {
		lines = 200
	}
	return Request{ContextID: e.UID.String(), Type: TypeTmux,
		Data: RefreshTmux{PaneID: pane, Lines: lines, CurrentSourceHash: e.SourceHash}}, true
}

func (tmuxHooks) Refresh(req Request) Update {
	data := req.Data.(RefreshTmux)
	out, err := runCommand("", "tmux", "capture-pane", "-p", "-t", data.PaneID, "-S", fmt.Sprintf("-%d", data.Lines))
	if err != nil {
		return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
			Content: fmt.Sprintf("[tmux capture error: %v]", err), Err: err}
	}
	hash := hashid.HashString(out)
	if hash == data.CurrentSourceHash {
		return Update{Kind: UpdateUnchanged, ContextID: req.ContextID}
	}
	return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
		Content: out, NewSourceHash: hash}
}

func (tmuxHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	return applyContent(u, e, mods)
}

// ---- Git ----------------------------------------------------------------

// GitModuleState is the module substate a Git panel's refresh populates,
// per §4.2.2's "ModuleSpecific" update shape.
type GitModuleState struct {
	Branch        string
	Staged        []string
	Unstaged      []string
	Untracked     []string
	LastPorcelain string
}

type gitHooks struct{}

func (gitHooks) BuildRequest(e *Element) (Request, bool) {
	repo, _ := e.Metadata["repo_path"].(string)
	showDiffs, _ := e.Metadata["show_diffs"].(bool)
	diffBase, _ := e.Metadata["diff_base"].(string)
	return Request{ContextID: e.UID.String(), Type: TypeGit,
		Data: RefreshGitStatus{ShowDiffs: showDiffs, CurrentSourceHash: e.SourceHash, DiffBase: diffBase, RepoPath: repo}}, true
}

func (gitHooks) Refresh(req Request) Update {
	data := req.Data.(RefreshGitStatus)
	porcelain, err := runCommand(data.RepoPath, "git", "status", "--porcelain=v2", "--branch")
	if err != nil {
		return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
			Content: fmt.Sprintf("[git status error: %v]", err), Err: err}
	}
	hash := hashid.HashString(porcelain)
	if hash == data.CurrentSourceHash {
		return Update{Kind: UpdateUnchanged, ContextID: req.ContextID}
	}

	mod := parsePorcelain(porcelain)
	content := renderGitStatus(mod)
	if data.ShowDiffs {
		diffArgs := []string{"diff"}
		if data.DiffBase != "" {
			diffArgs = append(diffArgs, data.DiffBase)
		}
		diff, _ := runCommand(data.RepoPath, "git", diffArgs...)
		content += "\n\n" + diff
	}
	return Update{
		Kind: UpdateModuleSpecific, ContextID: req.ContextID, HasContent: true,
		Content: content, NewSourceHash: hash,
		ModuleName: "git", ModuleData: mod,
	}
}

func parsePorcelain(out string) GitModuleState {
	mod := GitModuleState{LastPorcelain: out}
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "# branch.head "):
			mod.Branch = strings.TrimPrefix(line, "# branch.head ")
		case strings.HasPrefix(line, "1 ") || strings.HasPrefix(line, "2 "):
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			xy := fields[1]
			path := fields[len(fields)-1]
			if len(xy) == 2 && xy[0] != '.' {
				mod.Staged = append(mod.Staged, path)
			}
			if len(xy) == 2 && xy[1] != '.' {
				mod.Unstaged = append(mod.Unstaged, path)
			}
		case strings.HasPrefix(line, "? "):
			mod.Untracked = append(mod.Untracked, strings.TrimPrefix(line, "? "))
		}
	}
	return mod
}

func renderGitStatus(mod GitModuleState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "branch: %s\n", mod.Branch)
	fmt.Fprintf(&b, "staged: %d\n", len(mod.Staged))
	for _, p := range mod.Staged {
		fmt.Fprintf(&b, "  + %s\n", p)
	}
	fmt.Fprintf(&b, "unstaged: %d\n", len(mod.Unstaged))
	for _, p := range mod.Unstaged {
		fmt.Fprintf(&b, "  ~ %s\n", p)
	}
	fmt.Fprintf(&b, "untracked: %d\n", len(mod.Untracked))
	for _, p := range mod.Untracked {
		fmt.Fprintf(&b, "  ? %s\n", p)
	}
	return b.String()
}

func (gitHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	if u.Kind == UpdateModuleSpecific {
		mods.SetModule("git", u.ModuleData)
	}
	return applyContent(u, e, mods)
}

// ---- GitResult / GithubResult (one-shot command capture) -----------------

type commandResultHooks struct{}

func (commandResultHooks) BuildRequest(e *Element) (Request, bool) {
	cmd, _ := e.Metadata["result_command"].(string)
	if cmd == "" {
		return Request{}, false
	}
	var args []string
	if raw, ok := e.Metadata["result_args"].([]string); ok {
		args = raw
	}
	dir, _ := e.Metadata["dir"].(string)
	return Request{ContextID: e.UID.String(), Type: e.Type, Data: RefreshCommand{Command: cmd, Args: args, Dir: dir}}, true
}

func (commandResultHooks) Refresh(req Request) Update {
	data := req.Data.(RefreshCommand)
	out, err := runCommand(data.Dir, data.Command, data.Args...)
	content := out
	if err != nil {
		content = fmt.Sprintf("%s\n[exit error: %v]", content, err)
	}
	return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true, Content: content}
}

func (commandResultHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	return applyContent(u, e, mods)
}

// ---- Memory ---------------------------------------------------------------

type memoryHooks struct{}

func (memoryHooks) BuildRequest(e *Element) (Request, bool) {
	path, _ := e.Metadata["memory_path"].(string)
	if path == "" {
		return Request{}, false
	}
	return Request{ContextID: e.UID.String(), Type: TypeMemory, Data: RefreshMemory{Path: path}}, true
}

func (memoryHooks) Refresh(req Request) Update {
	data := req.Data.(RefreshMemory)
	bytes, err := os.ReadFile(data.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true, Content: ""}
		}
		return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
			Content: fmt.Sprintf("[error reading memory: %v]", err), Err: err}
	}
	return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true, Content: string(bytes)}
}

func (memoryHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	return applyContent(u, e, mods)
}

// ---- Console ----------------------------------------------------------

type consoleHooks struct{}

func (consoleHooks) BuildRequest(e *Element) (Request, bool) {
	id, _ := e.Metadata["console_session_id"].(string)
	if id == "" {
		return Request{}, false
	}
	return Request{ContextID: e.UID.String(), Type: TypeConsole, Data: RefreshConsole{SessionID: id}}, true
}

func (consoleHooks) Refresh(req Request) Update {
	// Console output is captured into a per-session ring buffer by a
	// process watcher (§5's "process watchers... poll at ~50ms"); the ring
	// lives in module state and is read back in ApplyCacheUpdate under the
	// "console:<uid>" module key, so this refresh carries no content.
	data := req.Data.(RefreshConsole)
	return Update{Kind: UpdateModuleSpecific, ContextID: req.ContextID, HasContent: false,
		ModuleName: "console_request", ModuleData: data.SessionID}
}

func (consoleHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	if ring, ok := mods.Module("console:" + e.UID.String()).(fmt.Stringer); ok {
		u.HasContent = true
		u.Content = ring.String()
		u.Kind = UpdateContent
	}
	return applyContent(u, e, mods)
}

// ---- Logs -------------------------------------------------------------

type logsHooks struct{}

func (logsHooks) BuildRequest(e *Element) (Request, bool) {
	from, _ := e.Metadata["chunk_from"].(int)
	to, _ := e.Metadata["chunk_to"].(int)
	return Request{ContextID: e.UID.String(), Type: TypeLogs, Data: RefreshLogs{ChunkFrom: from, ChunkTo: to}}, true
}

func (logsHooks) Refresh(req Request) Update {
	// No chunk files are read here: the refresh always reports Unchanged,
	// which only clears the in-flight flag and stamps last_refresh_ms.
	return Update{Kind: UpdateUnchanged, ContextID: req.ContextID}
}

func (logsHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	return applyContent(u, e, mods)
}

// ---- ConversationHistory ------------------------------------------------

type conversationHistoryHooks struct{}

func (conversationHistoryHooks) BuildRequest(e *Element) (Request, bool) {
	// ConversationHistory panels are repopulated from their own owned
	// HistoryMessages slice, not an external source; a refresh here only
	// recomputes pagination/content against the current page-size
	// constant (§5.1's resolved Open Question).
	return Request{ContextID: e.UID.String(), Type: TypeConversationHistory, Data: nil}, true
}

func (conversationHistoryHooks) Refresh(req Request) Update {
	return Update{Kind: UpdateUnchanged, ContextID: req.ContextID}
}

func (conversationHistoryHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	var b strings.Builder
	for _, m := range e.HistoryMessages {
		fmt.Fprintf(&b, "[%s]: %s\n", m.LocalID, m.EffectiveContent())
	}
	u.Kind = UpdateContent
	u.HasContent = true
	u.Content = b.String()
	return applyContent(u, e, mods)
}

// ---- Skill --------------------------------------------------------------

type skillHooks struct{}

func (skillHooks) BuildRequest(e *Element) (Request, bool) {
	path, _ := e.Metadata["skill_path"].(string)
	if path == "" {
		return Request{}, false
	}
	return Request{ContextID: e.UID.String(), Type: TypeSkill, Data: RefreshSkill{Path: path}}, true
}

func (skillHooks) Refresh(req Request) Update {
	data := req.Data.(RefreshSkill)
	bytes, err := os.ReadFile(data.Path)
	if err != nil {
		return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true,
			Content: fmt.Sprintf("[error reading skill: %v]", err), Err: err}
	}
	return Update{Kind: UpdateContent, ContextID: req.ContextID, HasContent: true, Content: string(bytes)}
}

func (skillHooks) ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool {
	return applyContent(u, e, mods)
}
