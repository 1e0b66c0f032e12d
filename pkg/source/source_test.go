package source

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livekit/desktop-recorder/pkg/types"
)

func TestCompareIDs(t *testing.T) {
	ids := []string{"10", "b", "2", "a", "9"}
	slices.SortFunc(ids, CompareIDs)
	require.Equal(t, []string{"2", "9", "10", "a", "b"}, ids)

	require.Zero(t, CompareIDs("3", "3"))
	require.Zero(t, CompareIDs("x", "x"))
}

func TestSourceInterfaces(t *testing.T) {
	var s Source = Display{ID: "1", Name: "HDMI-1", Width: 2560, Height: 1440, X: 1920}
	require.Equal(t, "1", s.SourceID())
	require.Equal(t, types.SourceKindDisplay, s.SourceKind())
	w, h := s.Dimensions()
	require.Equal(t, int32(2560), w)
	require.Equal(t, int32(1440), h)
	require.Equal(t, "HDMI-1 (2560x1440+1920+0)", s.(Display).String())

	s = Camera{ID: "/dev/video0", Name: "Integrated Camera", DevicePath: "/dev/video0"}
	require.Equal(t, types.SourceKindCamera, s.SourceKind())
	require.Equal(t, "Integrated Camera", s.DisplayName())
}

func TestSafeID(t *testing.T) {
	require.Equal(t, "2", SafeID("2"))
	require.Equal(t, "dev_video0", SafeID("/dev/video0"))
	require.Equal(t, "source", SafeID("//"))
}
