package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/authbridge/domain"
	"go.pilab.hu/authbridge/dto"
)

type stubSource struct {
	calls int
	res   *dto.DisplayInfoResponse
	err   error
}

func (s *stubSource) Me(context.Context, domain.SessionToken) (*dto.DisplayInfoResponse, error) {
	s.calls++
	return s.res, s.err
}

func testResponse() *dto.DisplayInfoResponse {
	return &dto.DisplayInfoResponse{
		UserPayload: dto.UserPayload{
			ID:           "u1",
			AuthProvider: "firebase",
			IsActive:     true,
		},
		Greeting:          "Good evening",
		SessionsCompleted: 3,
	}
}

func TestGetFetchesOnceWithinTTL(t *testing.T) {
	src := &stubSource{res: testResponse()}
	c := NewDisplayCache(src, time.Minute, zerolog.Nop())
	defer c.Stop()

	ctx := context.Background()
	info, err := c.Get(ctx, "tok", false)
	require.NoError(t, err)
	assert.Equal(t, "Good evening", info.Greeting)

	_, err = c.Get(ctx, "tok", false)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second read within TTL is served from cache")
}

func TestGetForceBypassesCache(t *testing.T) {
	src := &stubSource{res: testResponse()}
	c := NewDisplayCache(src, time.Minute, zerolog.Nop())
	defer c.Stop()

	ctx := context.Background()
	_, err := c.Get(ctx, "tok", false)
	require.NoError(t, err)
	_, err = c.Get(ctx, "tok", true)
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
}

func TestGetRefetchesAfterClear(t *testing.T) {
	src := &stubSource{res: testResponse()}
	c := NewDisplayCache(src, time.Minute, zerolog.Nop())
	defer c.Stop()

	ctx := context.Background()
	_, err := c.Get(ctx, "tok", false)
	require.NoError(t, err)

	c.Clear()

	_, err = c.Get(ctx, "tok", false)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestGetSurfacesFetchError(t *testing.T) {
	src := &stubSource{err: errors.New("backend down")}
	c := NewDisplayCache(src, time.Minute, zerolog.Nop())
	defer c.Stop()

	_, err := c.Get(context.Background(), "tok", false)
	assert.Error(t, err)
}

func TestGetSurfacesValidationError(t *testing.T) {
	src := &stubSource{res: &dto.DisplayInfoResponse{}}
	c := NewDisplayCache(src, time.Minute, zerolog.Nop())
	defer c.Stop()

	_, err := c.Get(context.Background(), "tok", false)
	require.Error(t, err)
	var verr *dto.ValidationError
	assert.ErrorAs(t, err, &verr)
}
