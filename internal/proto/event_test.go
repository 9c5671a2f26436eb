package proto

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEventMarshalUsesTriples(t *testing.T) {
	data, err := json.Marshal([]Event{{Command: CommandConnected}, Failure("boom")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[["","CONNECTED",[]],["","ERROR",["boom"]]]`
	if string(data) != want {
		t.Fatalf("marshal = %s, want %s", data, want)
	}
}

func TestEventUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Event
	}{
		{
			name: "list params",
			in:   `["alice!a@h","PRIVMSG",["#test","hi"]]`,
			want: Event{Prefix: "alice!a@h", Command: "PRIVMSG", Params: []string{"#test", "hi"}},
		},
		{
			name: "bare string params",
			in:   `["","CONNECT_TIMEOUT","timed out"]`,
			want: Event{Command: "CONNECT_TIMEOUT", Params: []string{"timed out"}},
		},
		{
			name: "empty string params",
			in:   `["","CONNECTING",""]`,
			want: Event{Command: "CONNECTING", Params: []string{}},
		},
		{
			name: "null params",
			in:   `["","CONNECTED",null]`,
			want: Event{Command: "CONNECTED", Params: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Event
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEventUnmarshalRejectsMalformed(t *testing.T) {
	for _, in := range []string{`{"prefix":""}`, `["a","b"]`, `[1,"b",[]]`, `["","X",[1]]`} {
		var ev Event
		if err := json.Unmarshal([]byte(in), &ev); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}
