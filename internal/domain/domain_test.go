package domain

import "testing"

func TestKindFromCode(t *testing.T) {
	tests := []struct {
		code uint8
		want MessageKind
	}{
		{0, KindRegister},
		{1, KindAcceptConnection},
		{2, KindDeregister},
		{3, KindPing},
		{4, KindPong},
		{5, KindStateRequest},
		{6, KindUnknown},
		{200, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindFromCode(tt.code); got != tt.want {
			t.Errorf("KindFromCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestMessageKind_String(t *testing.T) {
	tests := []struct {
		kind MessageKind
		want string
	}{
		{KindRegister, "register"},
		{KindAcceptConnection, "accept-connection"},
		{KindDeregister, "deregister"},
		{KindPing, "ping"},
		{KindPong, "pong"},
		{KindStateRequest, "state-request"},
		{KindUnknown, "unknown"},
		{MessageKind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestCapabilities_AddKeepsOrder(t *testing.T) {
	var c Capabilities
	c.Add(CapCommand, "b")
	c.Add(CapCommand, "a")
	c.Add(CapData, "z")

	if len(c.Commands) != 2 || c.Commands[0] != "b" || c.Commands[1] != "a" {
		t.Errorf("commands = %v, want declared order [b a]", c.Commands)
	}
	if len(c.Data) != 1 || c.Data[0] != "z" {
		t.Errorf("data = %v, want [z]", c.Data)
	}
}
