package syncdaemon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uber/analysis-sync/src/anasync/controller/sync-daemon/syncdaemonmock"
	"github.com/uber/analysis-sync/src/anasync/factory"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/mock/gomock"
)

func TestCompletion(t *testing.T) {
	params := protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: factory.DocumentURI(1)},
			Position:     protocol.Position{Line: 1, Character: 3},
		},
	}

	tests := []struct {
		name             string
		params           interface{}
		controllerCalled bool
		controllerResult *protocol.CompletionList
		controllerError  error
		wantErr          bool
	}{
		{
			name:             "success",
			params:           params,
			controllerCalled: true,
			controllerResult: &protocol.CompletionList{Items: []protocol.CompletionItem{{Label: "path"}}},
		},
		{
			name:             "stale request",
			params:           params,
			controllerCalled: true,
			controllerResult: &protocol.CompletionList{IsIncomplete: true, Items: []protocol.CompletionItem{}},
		},
		{
			name:             "error from controller",
			params:           params,
			controllerCalled: true,
			controllerError:  errors.New("document not found"),
			wantErr:          true,
		},
		{
			name:    "invalid params",
			params:  struct{ Position string }{Position: "1:3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := syncdaemonmock.NewMockController(ctrl)
			if tt.controllerCalled {
				c.EXPECT().Completion(gomock.Any(), &params).Return(tt.controllerResult, tt.controllerError)
			}

			var result interface{}
			r := jsonRPCRouter{syncdaemon: c}
			req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), protocol.MethodTextDocumentCompletion, tt.params)
			err := r.HandleReq(context.Background(), newRecordingReplier(&result), req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.controllerResult, result)
			}
		})
	}
}
