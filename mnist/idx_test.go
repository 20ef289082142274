package mnist

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func imageFile(t *testing.T, rows, cols uint32, images ...[]byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(imageMagic)))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(len(images))))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, rows))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, cols))
	for _, img := range images {
		buf.Write(img)
	}
	return &buf
}

func labelFile(t *testing.T, labels []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(labelMagic)))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(len(labels))))
	buf.Write(labels)
	return &buf
}

func TestReadImages(t *testing.T) {
	buf := imageFile(t, 2, 2,
		[]byte{0, 51, 102, 153},
		[]byte{255, 204, 153, 102},
		[]byte{10, 20, 30, 40},
	)

	x, err := readImages(buf, 0)
	require.NoError(t, err)

	d, m := x.Dims()
	require.Equal(t, 4, d)
	require.Equal(t, 3, m)

	require.InDelta(t, 0.0, x.At(0, 0), 1e-12)
	require.InDelta(t, 51.0/255, x.At(1, 0), 1e-12)
	require.InDelta(t, 1.0, x.At(0, 1), 1e-12)
	require.InDelta(t, 40.0/255, x.At(3, 2), 1e-12)
}

func TestReadImagesLimit(t *testing.T) {
	buf := imageFile(t, 2, 2,
		[]byte{1, 2, 3, 4},
		[]byte{5, 6, 7, 8},
		[]byte{9, 10, 11, 12},
	)

	x, err := readImages(buf, 2)
	require.NoError(t, err)

	_, m := x.Dims()
	require.Equal(t, 2, m)
}

func TestReadImagesBadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(1234)))

	_, err := readImages(&buf, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid image magic")
}

func TestReadImagesTruncated(t *testing.T) {
	buf := imageFile(t, 2, 2, []byte{1, 2, 3, 4})
	// Claim two images but only provide one.
	full := buf.Bytes()
	binary.BigEndian.PutUint32(full[4:8], 2)

	_, err := readImages(bytes.NewReader(full), 0)
	require.Error(t, err)
}

func TestReadLabels(t *testing.T) {
	buf := labelFile(t, []byte{0, 2, 1, 2})

	y, err := readLabels(buf, 3, 0)
	require.NoError(t, err)

	k, m := y.Dims()
	require.Equal(t, 3, k)
	require.Equal(t, 4, m)

	for j, want := range []int{0, 2, 1, 2} {
		for i := 0; i < k; i++ {
			expected := 0.0
			if i == want {
				expected = 1.0
			}
			require.Equal(t, expected, y.At(i, j), "entry (%d,%d)", i, j)
		}
	}
}

func TestReadLabelsOutOfRange(t *testing.T) {
	buf := labelFile(t, []byte{0, 5})

	_, err := readLabels(buf, 3, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of range")
}
