package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	if rd := GetRequestData(ctx); rd != nil {
		t.Fatalf("expected nil request data, got %+v", rd)
	}
	id := uuid.New()
	ctx = WithRequestData(ctx, &RequestData{TokenString: "tok", UserID: id})
	rd := GetRequestData(ctx)
	if rd == nil || rd.UserID != id {
		t.Fatalf("unexpected request data: %+v", rd)
	}
}

func TestLogFields(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})
	got := LogFields(ctx)
	if len(got) != 4 || got[1] != "r" || got[3] != "t" {
		t.Fatalf("unexpected fields: %v", got)
	}
	if got := LogFields(context.Background()); len(got) != 0 {
		t.Fatalf("expected no fields, got %v", got)
	}
}
