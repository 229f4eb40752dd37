package analyzerclient

import (
	"encoding/json"

	"github.com/uber/analysis-sync/src/anasync/internal/versionchain"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// Methods exchanged with the analysis engine.
const (
	MethodAnalyzeFile            = "analysis/analyzeFile"
	MethodFileUpdate             = "analysis/fileUpdate"
	MethodGetMembers             = "completion/getMembers"
	MethodGetAllAvailableMembers = "completion/getAllAvailableMembers"
	MethodFindNameInAllModules   = "completion/findNameInAllModules"

	NotificationAnalysisCompleted = "analysis/completed"
	NotificationAbnormalExit      = "analysis/abnormalExit"
)

// AnalyzeFileParams asks the engine to start tracking a file.
type AnalyzeFileParams struct {
	URI uri.URI `json:"uri"`
}

// FileUpdateParams carries the edits that bring the engine's copy of a file up to date.
type FileUpdateParams struct {
	URI     uri.URI                   `json:"uri"`
	Updates []versionchain.FileUpdate `json:"updates"`
}

// MemberQueryParams identifies the completion point of a member query.
type MemberQueryParams struct {
	URI uri.URI `json:"uri"`
	// Version is the document version the position refers to.
	Version  int               `json:"version"`
	Position protocol.Position `json:"position"`
	// Expression is the text of the expression members are requested for, empty for top level names.
	Expression string `json:"expression,omitempty"`
	// Name is the partially typed name, used by FindNameInAllModules.
	Name string `json:"name,omitempty"`
}

// Member is a completion candidate reported by the engine.
type Member struct {
	Name          string                      `json:"name"`
	InsertionText string                      `json:"insertionText,omitempty"`
	Documentation string                      `json:"documentation,omitempty"`
	Kind          protocol.CompletionItemKind `json:"kind"`
	MergeKey      string                      `json:"mergeKey,omitempty"`
}

// MembersResult is the engine response to a member query.
type MembersResult struct {
	// Version is the document version the engine answered for.
	Version int      `json:"version"`
	Members []Member `json:"members"`
}

// AnalysisCompletedParams is sent by the engine when it finishes analyzing a file version.
type AnalysisCompletedParams struct {
	URI     uri.URI         `json:"uri"`
	Version int             `json:"version"`
	Results json.RawMessage `json:"results,omitempty"`
}

// AbnormalExitParams is sent when the analysis process exited unexpectedly.
type AbnormalExitParams struct {
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}
