package access_test

import (
	"context"
	"testing"

	access "github.com/lumehealth/go-access"
	"github.com/stretchr/testify/assert"
)

func TestActorContextRoundtrip(t *testing.T) {
	actor := adminActor()

	ctx := access.WithActorContext(context.Background(), actor)

	got, ok := access.ActorFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, actor, got)
}

func TestActorFromEmptyContext(t *testing.T) {
	got, ok := access.ActorFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}
