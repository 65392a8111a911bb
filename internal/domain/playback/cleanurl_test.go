package playback

import "testing"

func TestCanonicalAssetURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips single transformation segment",
			in:   "https://res.cloudinary.com/demo/video/upload/q_auto:good,f_auto/v1699999999/audio/episode.m4a",
			want: "https://res.cloudinary.com/demo/video/upload/v1699999999/audio/episode.m4a",
		},
		{
			name: "strips chained transformation segments",
			in:   "https://res.cloudinary.com/demo/video/upload/q_auto:good,f_auto/fl_streaming_attachment/ac_mp3,ab_128k/v1234/audio/show.mp3",
			want: "https://res.cloudinary.com/demo/video/upload/v1234/audio/show.mp3",
		},
		{
			name: "already canonical",
			in:   "https://res.cloudinary.com/demo/video/upload/v1234/audio/show.mp3",
			want: "https://res.cloudinary.com/demo/video/upload/v1234/audio/show.mp3",
		},
		{
			name: "image asset",
			in:   "https://res.cloudinary.com/demo/image/upload/w_300,h_300,c_fill/v42/thumbnails/cover.jpg",
			want: "https://res.cloudinary.com/demo/image/upload/v42/thumbnails/cover.jpg",
		},
		{
			name: "non cloudinary url passes through",
			in:   "https://cdn.example.com/audio/episode.mp3",
			want: "https://cdn.example.com/audio/episode.mp3",
		},
		{
			name: "cloudinary url without version segment passes through",
			in:   "https://res.cloudinary.com/demo/video/upload/audio/episode.mp3",
			want: "https://res.cloudinary.com/demo/video/upload/audio/episode.mp3",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalAssetURL(tt.in); got != tt.want {
				t.Errorf("CanonicalAssetURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsVersionSegment(t *testing.T) {
	tests := []struct {
		segment string
		want    bool
	}{
		{"v1", true},
		{"v1699999999", true},
		{"v", false},
		{"v1a", false},
		{"version", false},
		{"q_auto:good", false},
	}
	for _, tt := range tests {
		if got := isVersionSegment(tt.segment); got != tt.want {
			t.Errorf("isVersionSegment(%q) = %v, want %v", tt.segment, got, tt.want)
		}
	}
}
