package apiclient_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/keybridge/apiclient"
	"github.com/Alia5/keybridge/apitypes"
)

// testClient constructs a client backed by a simple in-memory responder.
// responses maps request patterns (before path param substitution) to raw JSON payloads.
// If err is non-nil, every request returns that error, simulating dial failures.
func testClient(responses map[string]string, err error) *apiclient.Client {
	return apiclient.WithTransport(apiclient.NewMockTransport(func(path string, _ any, _ map[string]string) (string, error) {
		if err != nil {
			return "", err
		}
		if out, ok := responses[path]; ok {
			return out, nil
		}
		return "", nil
	}))
}

func TestHighLevelClient(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		setup      func(responses map[string]string) (err error)
		call       func(c *apiclient.Client) (any, error)
		wantErr    string
		assertFunc func(t *testing.T, got any)
	}{
		{
			name:  "ping",
			setup: func(responses map[string]string) error { responses["ping"] = `{"server":"keybridge","version":"1.0"}`; return nil },
			call:  func(c *apiclient.Client) (any, error) { return c.Ping(ctx) },
			assertFunc: func(t *testing.T, got any) {
				assert.Equal(t, &apitypes.PingResponse{Server: "keybridge", Version: "1.0"}, got)
			},
		},
		{
			name: "layout set fallback",
			setup: func(responses map[string]string) error {
				responses["layout/set"] = `{"active":"en_US","fallback":true}`
				return nil
			},
			call: func(c *apiclient.Client) (any, error) { return c.LayoutSet(ctx, "xx_XX") },
			assertFunc: func(t *testing.T, got any) {
				assert.True(t, got.(*apitypes.LayoutSetResponse).Fallback)
			},
		},
		{
			name: "macro save rejected",
			setup: func(responses map[string]string) error {
				responses["macro/save"] = `{"status":409,"title":"Conflict","detail":"too many macros","reason":"too_many_macros"}`
				return nil
			},
			call:    func(c *apiclient.Client) (any, error) { return c.MacroSave(ctx, apitypes.Macro{Name: "x"}) },
			wantErr: "409 Conflict: too many macros",
		},
		{
			name: "macro list",
			setup: func(responses map[string]string) error {
				responses["macro/list"] = `{"macros":[{"id":"a","name":"copy","steps":[{"keys":["KeyC"],"modifiers":["ControlLeft"],"delay":50}],"sortOrder":1}]}`
				return nil
			},
			call: func(c *apiclient.Client) (any, error) { return c.MacroList(ctx) },
			assertFunc: func(t *testing.T, got any) {
				resp := got.(*apitypes.MacroListResponse)
				assert.Len(t, resp.Macros, 1)
				assert.Equal(t, []string{"KeyC"}, resp.Macros[0].Steps[0].Keys)
			},
		},
		{
			name: "type reports skipped",
			setup: func(responses map[string]string) error {
				responses["keyboard/type"] = `{"typed":2,"skipped":["☃"]}`
				return nil
			},
			call: func(c *apiclient.Client) (any, error) { return c.KeyboardType(ctx, "z@☃") },
			assertFunc: func(t *testing.T, got any) {
				assert.Equal(t, &apitypes.TypeResponse{Typed: 2, Skipped: []string{"☃"}}, got)
			},
		},
		{
			name:    "transport failure",
			setup:   func(responses map[string]string) error { return errors.New("dial fail") },
			call:    func(c *apiclient.Client) (any, error) { return c.LayoutList(ctx) },
			wantErr: "dial fail",
		},
		{
			name:    "blank response error",
			setup:   func(responses map[string]string) error { return nil },
			call:    func(c *apiclient.Client) (any, error) { return c.KeyboardState(ctx) },
			wantErr: "empty response",
		},
		{
			name: "reset error",
			setup: func(responses map[string]string) error {
				responses["keyboard/reset"] = `{"status":503,"title":"Service Unavailable","detail":"session closed"}`
				return nil
			},
			call:    func(c *apiclient.Client) (any, error) { return nil, c.KeyboardReset(ctx) },
			wantErr: "503 Service Unavailable: session closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := map[string]string{}
			errInject := error(nil)
			if tt.setup != nil {
				if e := tt.setup(responses); e != nil {
					errInject = e
				}
			}
			c := testClient(responses, errInject)
			got, err := tt.call(c)
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
			if tt.assertFunc != nil {
				tt.assertFunc(t, got)
			}
		})
	}
}

func TestProblemIsTyped(t *testing.T) {
	c := testClient(map[string]string{
		"macro/{id}/play": `{"status":404,"title":"Not Found","detail":"macro not found"}`,
	}, nil)
	_, err := c.MacroPlay(context.Background(), "nope")
	var problem *apitypes.ApiError
	assert.True(t, errors.As(err, &problem))
	assert.Equal(t, 404, problem.Status)
}

func TestContextCancellation(t *testing.T) {
	c := apiclient.New("127.0.0.1:9") // address irrelevant due to early cancel
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.LayoutList(ctx)
	assert.Error(t, err)
}
