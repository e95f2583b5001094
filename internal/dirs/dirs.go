// Package dirs centralizes the reserved file and directory names gotask
// treats specially, so every other package agrees on the same layout.
package dirs

// TaskDir is the reserved directory name discovered by walking up from the
// current directory (spec.md §4.2).
const TaskDir = ".gotask"

// GitIgnoreFile is written inside TaskDir by `gotask gotask-init`.
const GitIgnoreFile = ".gitignore"

// SettingsFile is the optional ambient settings file read from TaskDir.
const SettingsFile = "settings.yaml"

// TargetDirName is the default build-artifact directory name, nested under
// TaskDir unless overridden by GOTASK_TARGET.
const TargetDirName = "target"

// WorkspaceDirName is the ephemeral synthesized go.work workspace,
// nested under the build-artifact directory.
const WorkspaceDirName = "got-workspace"

// BinDirName is where compiled task artifacts are written, nested under the
// build-artifact directory.
const BinDirName = "bin"

// ScriptSuffix marks a single-file script task. A file named
// "<name>.task.go" is a script task named "<name>".
const ScriptSuffix = ".task.go"

// UtilFileName is the name of the embedded utility source file written into
// every task's synthesized workspace directory.
const UtilFileName = "gotaskutil.go"

// DirectiveFilePrefix names the per-child-process post-execution directive
// file: "<prefix><pid>.atat".
const DirectiveFilePrefix = "task-directive-"

// DirectiveFileSuffix is the extension of the directive file.
const DirectiveFileSuffix = ".atat"

// LogsDirName is where per-task session logs are written, nested under the
// build-artifact directory.
const LogsDirName = "logs"
