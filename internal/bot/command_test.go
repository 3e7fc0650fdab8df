package bot

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Command
		wantErr bool
	}{
		{
			name: "help",
			text: "/help",
			want: Command{Kind: Help},
		},
		{
			name: "help uppercase",
			text: "/HELP",
			want: Command{Kind: Help},
		},
		{
			name: "search with query",
			text: "/search funny cat",
			want: Command{Kind: Search, Arg: "funny cat"},
		},
		{
			name: "search without query",
			text: "/search",
			want: Command{Kind: Search},
		},
		{
			name: "mention matches",
			text: "/search@SenseBot cat",
			want: Command{Kind: Search, Arg: "cat"},
		},
		{
			name: "mention matches case-insensitive",
			text: "/help@sensebot",
			want: Command{Kind: Help},
		},
		{
			name:    "mention for another bot",
			text:    "/search@OtherBot cat",
			wantErr: true,
		},
		{
			name:    "no slash",
			text:    "hello there",
			wantErr: true,
		},
		{
			name:    "unknown command",
			text:    "/dance",
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "",
			wantErr: true,
		},
		{
			name: "surrounding whitespace",
			text: "  /search cat  ",
			want: Command{Kind: Search, Arg: "cat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, "SenseBot")
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) = %+v, want error", tt.text, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseNotCommandSentinel(t *testing.T) {
	_, err := Parse("just chatting", "SenseBot")
	if !errors.Is(err, ErrNotCommand) {
		t.Errorf("error = %v, want ErrNotCommand", err)
	}

	// Unknown commands are addressed to us, so they are not ErrNotCommand.
	_, err = Parse("/dance", "SenseBot")
	if errors.Is(err, ErrNotCommand) {
		t.Error("unknown command reported as not-a-command")
	}
}
