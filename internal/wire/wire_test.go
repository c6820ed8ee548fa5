package wire

import (
	"reflect"
	"testing"

	"github.com/fatalsec/dalivm/internal/analysis"
)

func TestProtobufRoundTrip(t *testing.T) {
	result := &analysis.Result{
		RunID:  "test-run",
		Target: "Lcom/example/Crypto;->getKey()Ljava/lang/String;",
		CallSites: []analysis.CallResult{
			{
				Caller:          "Lcom/example/Main;->onCreate(Landroid/os/Bundle;)V",
				CallerPC:        42,
				ArgsFormatted:   []string{"\"seed\"", "7"},
				ReturnFormatted: "\"deadbeef\"",
				Resolved:        true,
			},
			{
				Caller:          "Lcom/example/Other;->go()V",
				CallerPC:        5,
				ArgsFormatted:   nil,
				ReturnFormatted: "null",
				Resolved:        false,
			},
		},
	}

	data := MarshalProtobuf(result)
	got, err := UnmarshalProtobuf(data)
	if err != nil {
		t.Fatalf("UnmarshalProtobuf: %v", err)
	}
	if len(got) != len(result.CallSites) {
		t.Fatalf("got %d call sites, want %d", len(got), len(result.CallSites))
	}
	for i := range got {
		want := result.CallSites[i]
		if got[i].Caller != want.Caller || got[i].CallerPC != want.CallerPC ||
			got[i].ReturnFormatted != want.ReturnFormatted || got[i].Resolved != want.Resolved {
			t.Errorf("call site %d = %+v, want %+v", i, got[i], want)
		}
		if !reflect.DeepEqual(got[i].ArgsFormatted, want.ArgsFormatted) {
			t.Errorf("call site %d args = %v, want %v", i, got[i].ArgsFormatted, want.ArgsFormatted)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	result := &analysis.Result{RunID: "r1", Target: "Lx;->y()V"}
	data, err := MarshalJSON(result)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("MarshalJSON returned empty output")
	}
}
