package dbctx

import (
	"context"
	"testing"
)

func TestContextNeverNil(t *testing.T) {
	var dbc Context
	if dbc.Context() == nil {
		t.Fatalf("expected background context for zero value")
	}
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	dbc = Context{Ctx: ctx}
	if got := dbc.WithTx(nil).Context().Value(key{}); got != "v" {
		t.Fatalf("WithTx dropped ctx: got=%v", got)
	}
}
