package announcer

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

func TestStartValidation(t *testing.T) {
	tests := []struct {
		name          string
		announcements []Announcement
		wantErr       bool
	}{
		{name: "nothing configured", announcements: nil},
		{
			name: "valid announcement",
			announcements: []Announcement{
				{ChannelID: snowflake.ID(1), Every: "1h", Messages: []string{"hi"}},
			},
		},
		{
			name: "unparseable interval",
			announcements: []Announcement{
				{ChannelID: snowflake.ID(1), Every: "soon", Messages: []string{"hi"}},
			},
			wantErr: true,
		},
		{
			name: "non-positive interval",
			announcements: []Announcement{
				{ChannelID: snowflake.ID(1), Every: "0s", Messages: []string{"hi"}},
			},
			wantErr: true,
		},
		{
			name: "no messages",
			announcements: []Announcement{
				{ChannelID: snowflake.ID(1), Every: "1h"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(nil)
			err := a.Start(tt.announcements)
			defer a.Stop()
			if (err != nil) != tt.wantErr {
				t.Errorf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
