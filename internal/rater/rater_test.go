package rater_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"pipemeter/internal/rater"
)

type sink struct {
	atomic.Uint64
}

func TestRaterCountsBytes(t *testing.T) {
	var s sink
	data := bytes.Repeat([]byte{'a'}, 10000)

	r := rater.NewRater(bytes.NewReader(data), &s)

	n, err := io.Copy(io.Discard, r)
	require.NoError(t, err)
	require.EqualValues(t, 10000, n)
	require.EqualValues(t, 10000, s.Load())

	require.EqualValues(t, 10000, r.Done())
	require.EqualValues(t, 10000, r.Status().Bytes)

	start, end := r.Span()
	require.False(t, start.IsZero())
	require.False(t, end.IsZero())
	require.False(t, end.Before(start))
}

func TestRaterCountsDataReturnedWithError(t *testing.T) {
	var s sink

	r := rater.NewRater(iotest.DataErrReader(bytes.NewReader([]byte("hello"))), &s)

	buf := make([]byte, 16)
	n, err := r.Read(buf)
	require.Equal(t, 5, n)
	require.ErrorIs(t, err, io.EOF)
	require.EqualValues(t, 5, s.Load())
}

func TestRaterErrorIsNotEOF(t *testing.T) {
	var s sink
	boom := errors.New("boom")

	r := rater.NewRater(iotest.ErrReader(boom), &s)

	_, err := r.Read(make([]byte, 4))
	require.ErrorIs(t, err, boom)
	require.Zero(t, s.Load())

	_, end := r.Span()
	require.True(t, end.IsZero())
}
