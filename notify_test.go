package treasury_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgap/treasury/types"
)

func TestNotificationsLifecycle(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// A transfer and a deposit each leave a notification behind.
	_, err := eng.Transfer(ctx, "alice", "bob", types.ARTC, dec("1"))
	require.NoError(t, err)
	dep, err := eng.Deposit(ctx, "bob", types.PI, dec("2"), "")
	require.NoError(t, err)
	_, err = eng.ConfirmDeposit(ctx, dep.ID)
	require.NoError(t, err)

	notes, err := eng.Notifications(ctx, "bob", false)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	for _, n := range notes {
		assert.False(t, n.Read)
	}

	// Mark the first two read; the unread view shrinks accordingly.
	require.NoError(t, eng.MarkNotificationsRead(ctx, notes[0].ID, notes[1].ID))

	unread, err := eng.Notifications(ctx, "bob", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, notes[2].ID.String(), unread[0].ID.String())

	// The full view keeps all three, now with read flags.
	all, err := eng.Notifications(ctx, "bob", false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Read)
	assert.True(t, all[1].Read)
	assert.False(t, all[2].Read)

	// Alice sent the transfer; nothing lands in her inbox.
	aliceNotes, err := eng.Notifications(ctx, "alice", false)
	require.NoError(t, err)
	assert.Empty(t, aliceNotes)
}
