package levels

import (
	"context"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// ErrCancelled is returned by a Prompter when the user aborts the session.
// It aborts the whole conversion.
var ErrCancelled = tderrors.New(tderrors.ErrCodeCancelled, "level assignment cancelled")

// Request asks for the level (and optionally the icon) of one node.
type Request struct {
	Node      *topology.Node
	Index     int // 1-based position among the nodes being asked
	Total     int
	Suggested int // level proposed by the automatic heuristic
	Neighbors []string
	Icons     []string
}

// Response is the answer to a Request. An empty Icon keeps the node's icon.
type Response struct {
	Level int
	Icon  string
}

// Prompter answers level requests one node at a time. Prompt blocks until
// an answer is available.
type Prompter interface {
	Prompt(ctx context.Context, req Request) (Response, error)
}

// ScriptedPrompter answers from fixed tables, falling back to the
// suggested level. It stands in for a terminal in tests and CI.
type ScriptedPrompter struct {
	Levels map[string]int
	Icons  map[string]string
	// CancelAt aborts with ErrCancelled when this node is asked.
	CancelAt string

	// Asked records the nodes in the order they were asked.
	Asked []string
}

// Prompt implements [Prompter].
func (s *ScriptedPrompter) Prompt(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	name := req.Node.Name
	s.Asked = append(s.Asked, name)
	if name == s.CancelAt {
		return Response{}, ErrCancelled
	}
	resp := Response{Level: req.Suggested, Icon: s.Icons[name]}
	if l, ok := s.Levels[name]; ok {
		resp.Level = l
	}
	return resp, nil
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, req Request) (Response, error)

// Prompt implements [Prompter].
func (f PrompterFunc) Prompt(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

var (
	_ Prompter = (*ScriptedPrompter)(nil)
	_ Prompter = PrompterFunc(nil)
)
