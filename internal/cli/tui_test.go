package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/session"
	"github.com/matzehuels/lovecontract/pkg/store/memory"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func newTestModel(t *testing.T) (ContractModel, *memory.Store) {
	t.Helper()
	st := memory.New()
	coord := session.New(st)
	t.Cleanup(func() { _ = coord.Close() })
	return newContractModel(context.Background(), coord), st
}

// press feeds keys to the model and runs any persistence command to
// completion, returning the final model.
func press(t *testing.T, m ContractModel, keys ...tea.KeyMsg) ContractModel {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(k)
		m = next.(ContractModel)
		if cmd == nil {
			continue
		}
		if msg, ok := cmd().(resultMsg); ok {
			next, _ = m.Update(msg)
			m = next.(ContractModel)
		}
	}
	return m
}

// sign opens the pad for key, draws a short line and saves it.
func sign(t *testing.T, m ContractModel, key string) ContractModel {
	t.Helper()
	return press(t, m, runes(key), keySpace, keyRight, keyRight, keyRight, keyEnter)
}

func TestModelSignsSlot(t *testing.T) {
	m, st := newTestModel(t)

	m = press(t, m, runes("a"))
	require.True(t, m.snap.Capturing())
	assert.Equal(t, contract.SlotA, m.snap.CaptureSlot)
	assert.Contains(t, m.View(), "Signing as Vik")

	m = press(t, m, keyEnter)
	assert.True(t, m.statusErr, "saving an empty pad is refused")
	assert.True(t, m.snap.Capturing())

	m = press(t, m, keySpace, keyRight, keyRight, keyEnter)
	assert.False(t, m.busy)
	assert.False(t, m.snap.Capturing())
	assert.Equal(t, "Vik signed", m.status)

	doc, err := st.Read(context.Background(), contract.DocumentID)
	require.NoError(t, err)
	assert.True(t, doc.Signed(contract.SlotA))
	assert.False(t, doc.Signed(contract.SlotB))
}

func TestModelRefusesSignedSlot(t *testing.T) {
	m, _ := newTestModel(t)
	m = sign(t, m, "a")

	m = press(t, m, runes("a"))
	assert.False(t, m.snap.Capturing())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "already signed")

	m = press(t, m, runes("A"))
	assert.False(t, m.snap.Document.Signed(contract.SlotA))
	m = press(t, m, runes("a"))
	assert.True(t, m.snap.Capturing())
}

func TestModelDiscardCapture(t *testing.T) {
	m, st := newTestModel(t)
	m = press(t, m, runes("b"), keySpace, keyRight, keyEsc)

	assert.False(t, m.snap.Capturing())
	assert.Equal(t, "Signature discarded", m.status)
	assert.Equal(t, 0, st.Len())
}

func TestModelCelebrationLocked(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("3"))
	assert.Equal(t, session.ViewContract, m.snap.View)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "(locked)")

	m = sign(t, m, "a")
	m = sign(t, m, "b")
	assert.True(t, m.snap.CelebrationReachable())
	assert.True(t, m.snap.Celebration)
	assert.Contains(t, m.View(), "Both signed!")

	m = press(t, m, runes("3"))
	assert.Equal(t, session.ViewCelebration, m.snap.View)

	m = press(t, m, runes("d"))
	assert.False(t, m.snap.Celebration)
}

func TestModelEnvelopeAndAccept(t *testing.T) {
	m, st := newTestModel(t)

	m = press(t, m, runes("2"))
	assert.Equal(t, session.ViewEnvelope, m.snap.View)
	assert.Contains(t, m.View(), "press enter")

	m = press(t, m, keyEnter)
	assert.NotEqual(t, session.EnvelopeClosed, m.snap.Envelope)

	m = press(t, m, runes("y"))
	assert.True(t, strings.HasPrefix(m.status, "Proposal accepted"))
	doc, err := st.Read(context.Background(), contract.DocumentID)
	require.NoError(t, err)
	assert.True(t, doc.Acceptance.Accepted)
}

func TestCellCenterStaysOnSurface(t *testing.T) {
	for _, c := range []cell{{0, 0}, {padCols - 1, padRows - 1}} {
		p := cellCenter(c)
		assert.Greater(t, p.X, 0.0)
		assert.Less(t, p.X, float64(contract.CaptureWidth))
		assert.Greater(t, p.Y, 0.0)
		assert.Less(t, p.Y, float64(contract.CaptureHeight))
	}
}
