package interaction

import (
	"encoding/json"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) *discordgo.Interaction {
	t.Helper()
	var di discordgo.Interaction
	require.NoError(t, json.Unmarshal([]byte(raw), &di))
	return &di
}

func TestFromDiscord_Ping(t *testing.T) {
	i, err := FromDiscord(decode(t, `{"id":"1","type":1}`))
	require.NoError(t, err)
	assert.Equal(t, KindPing, i.Kind)
}

func TestFromDiscord_Command(t *testing.T) {
	i, err := FromDiscord(decode(t, `{
		"id": "100", "type": 2, "guild_id": "g1", "channel_id": "c1",
		"member": {"user": {"id": "u1"}, "roles": ["r1", "r2"]},
		"data": {"id": "cmd", "name": "search", "type": 1, "options": [
			{"name": "title", "type": 3, "value": "Dune"},
			{"name": "isbn", "type": 3, "value": "9780441013593"}
		]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, KindCommand, i.Kind)
	assert.Equal(t, "100", i.ID)
	assert.Equal(t, "g1", i.GuildID)
	assert.Equal(t, "u1", i.UserID)
	assert.Equal(t, []string{"r1", "r2"}, i.RoleIDs)
	assert.Equal(t, "search", i.CommandName)
	assert.Equal(t, "Dune", i.Option("title"))
	assert.Equal(t, "9780441013593", i.Option("isbn"))
	assert.Empty(t, i.Option("author"))
	assert.Equal(t, []string{"title", "isbn"}, i.OptionOrder)
	assert.Equal(t, "Dune", i.FirstOption(), "sent order wins over name order")
	assert.True(t, i.HasRole("r2"))
	assert.False(t, i.HasRole("r3"))
	assert.False(t, i.HasRole(""))
}

func TestFirstOption(t *testing.T) {
	assert.Empty(t, Interaction{}.FirstOption())

	unordered := Interaction{Options: map[string]string{"zeta": "z", "alpha": "a", "mid": "m"}}
	for range 20 {
		assert.Equal(t, "a", unordered.FirstOption())
	}

	ordered := Interaction{
		Options:     map[string]string{"zeta": "z", "alpha": "a"},
		OptionOrder: []string{"zeta", "alpha"},
	}
	assert.Equal(t, "z", ordered.FirstOption())
}

func TestFromDiscord_DirectMessageUser(t *testing.T) {
	i, err := FromDiscord(decode(t, `{"id":"1","type":2,"user":{"id":"dm-user"},"data":{"name":"hello","type":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "dm-user", i.UserID)
	assert.Empty(t, i.GuildID)
}

func TestFromDiscord_Component(t *testing.T) {
	i, err := FromDiscord(decode(t, `{
		"id": "1", "type": 3, "guild_id": "g1",
		"member": {"user": {"id": "u1"}, "roles": []},
		"data": {"custom_id": "select_book_2", "component_type": 2}
	}`))
	require.NoError(t, err)
	assert.Equal(t, KindComponentClick, i.Kind)
	assert.Equal(t, "select_book_2", i.CustomID)
}

func TestFromDiscord_ModalSubmit(t *testing.T) {
	i, err := FromDiscord(decode(t, `{
		"id": "1", "type": 5, "guild_id": "g1",
		"member": {"user": {"id": "u1"}},
		"data": {"custom_id": "select_schedule_new", "components": [
			{"type": 1, "components": [{"type": 4, "custom_id": "discussion_date", "value": "12-31-2099"}]},
			{"type": 1, "components": [{"type": 4, "custom_id": "pages_or_chapters", "value": "Chapters 1-5"}]}
		]}
	}`))
	require.NoError(t, err)
	assert.Equal(t, KindFormSubmit, i.Kind)
	assert.Equal(t, "select_schedule_new", i.CustomID)
	assert.Equal(t, "12-31-2099", i.Value(DiscussionDateInputID))
	assert.Equal(t, "Chapters 1-5", i.Value(AssignmentInputID))
}

func TestFromDiscord_MissingData(t *testing.T) {
	_, err := FromDiscord(&discordgo.Interaction{Type: discordgo.InteractionApplicationCommand})
	require.ErrorIs(t, err, ErrNoData)

	_, err = FromDiscord(&discordgo.Interaction{Type: discordgo.InteractionModalSubmit})
	require.ErrorIs(t, err, ErrNoData)

	_, err = FromDiscord(nil)
	require.ErrorIs(t, err, ErrNoData)
}

func TestFromDiscord_Autocomplete(t *testing.T) {
	i, err := FromDiscord(decode(t, `{"id":"1","type":4,"data":{"name":"search","type":1}}`))
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, i.Kind)
}

func TestResponses(t *testing.T) {
	assert.Equal(t, discordgo.InteractionResponsePong, Pong().Type)

	msg := Message("hi")
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, msg.Type)
	assert.False(t, IsEphemeral(msg))

	eph := Ephemeral("secret")
	assert.True(t, IsEphemeral(eph))
	assert.Equal(t, discordgo.MessageFlags(64), eph.Data.Flags)

	modal := Modal("m1", "Title", discordgo.TextInput{CustomID: "a"}, discordgo.TextInput{CustomID: "b"})
	assert.Equal(t, discordgo.InteractionResponseModal, modal.Type)
	assert.Equal(t, "m1", modal.Data.CustomID)
	assert.Len(t, modal.Data.Components, 2)
}

func TestButtonRows(t *testing.T) {
	var buttons []discordgo.Button
	for n := range 7 {
		buttons = append(buttons, Button("b", SelectBookPrefix+string(rune('0'+n)), discordgo.PrimaryButton))
	}
	rows := ButtonRows(buttons...)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0].(discordgo.ActionsRow).Components, 5)
	assert.Len(t, rows[1].(discordgo.ActionsRow).Components, 2)
	assert.Empty(t, ButtonRows())
}
