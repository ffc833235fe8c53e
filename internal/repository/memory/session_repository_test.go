package memory

import (
	"errors"
	"testing"

	"ai-docchat-be/internal/entity"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newTestRepo() *SessionRepository {
	return NewSessionRepository(nopLogger{})
}

func TestInsertThenGet(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()

	repo.Insert(session)

	got, rev, found := repo.Get(session.Id.String())
	if !found {
		t.Fatal("inserted session not found")
	}
	if rev != 1 {
		t.Errorf("rev = %d, want 1", rev)
	}
	if got.Id != session.Id || got.Name != session.Name {
		t.Errorf("Get() = %+v, want %+v", got, session)
	}
}

func TestInsertExistingReturnsStoredUntouched(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()
	session.Name = "original"
	repo.Insert(session)

	dup := session.Clone()
	dup.Name = "intruder"
	returned := repo.Insert(dup)

	if returned.Name != "original" {
		t.Errorf("Insert(existing) returned %q, want stored %q", returned.Name, "original")
	}
	stored, _, _ := repo.Get(session.Id.String())
	if stored.Name != "original" {
		t.Errorf("stored name = %q, want %q", stored.Name, "original")
	}
}

func TestGetReturnsIsolatedSnapshot(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()
	repo.Insert(session)

	snapshot, _, _ := repo.Get(session.Id.String())
	snapshot.Name = "mutated"
	snapshot.AddMessage(entity.NewPromptMessage(session.Id, "user", "hi", "hi", 1))

	stored, _, _ := repo.Get(session.Id.String())
	if stored.Name == "mutated" || len(stored.Messages) != 0 {
		t.Error("mutating a snapshot leaked into the store")
	}
}

func TestUpdateCAS(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()
	repo.Insert(session)

	snapshot, rev, _ := repo.Get(session.Id.String())
	snapshot.Name = "renamed"
	if err := repo.Update(snapshot, rev); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// A second update with the now-stale revision must fail.
	stale := snapshot.Clone()
	stale.Name = "lost rename"
	if err := repo.Update(stale, rev); !errors.Is(err, ErrConflict) {
		t.Fatalf("Update(stale rev) error = %v, want ErrConflict", err)
	}

	stored, newRev, _ := repo.Get(session.Id.String())
	if stored.Name != "renamed" {
		t.Errorf("stored name = %q, want %q", stored.Name, "renamed")
	}
	if newRev != rev+1 {
		t.Errorf("rev after update = %d, want %d", newRev, rev+1)
	}
}

func TestUpdateMissingSession(t *testing.T) {
	repo := newTestRepo()
	ghost := entity.NewChatSession()
	if err := repo.Update(ghost, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateKeepsLoadedHistory(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()
	repo.Insert(session)

	msg := entity.NewPromptMessage(session.Id, "user", "hello", "hello", 2)
	if err := repo.AppendMessages(session.Id.String(), msg); err != nil {
		t.Fatalf("AppendMessages() error = %v", err)
	}

	snapshot, rev, _ := repo.Get(session.Id.String())
	snapshot.Name = "renamed"
	snapshot.Messages = nil // metadata update carries no history
	if err := repo.Update(snapshot, rev); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stored, _, _ := repo.Get(session.Id.String())
	if len(stored.Messages) != 1 || stored.Messages[0].Id != msg.Id {
		t.Error("metadata update dropped the loaded history")
	}
}

func TestAppendMessagesVisibleToSubsequentGet(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()
	repo.Insert(session)

	first := entity.NewPromptMessage(session.Id, "user", "one", "one", 1)
	second := entity.NewPromptMessage(session.Id, "assistant", "two", "two", 1)
	if err := repo.AppendMessages(session.Id.String(), first, second); err != nil {
		t.Fatalf("AppendMessages() error = %v", err)
	}

	stored, _, _ := repo.Get(session.Id.String())
	if len(stored.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(stored.Messages))
	}
	if stored.Messages[0].Id != first.Id || stored.Messages[1].Id != second.Id {
		t.Error("messages out of append order")
	}
}

func TestSetMessagesReplacesWholeHistory(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()
	repo.Insert(session)

	stale := entity.NewPromptMessage(session.Id, "user", "stale", "stale", 1)
	repo.AppendMessages(session.Id.String(), stale)

	loaded := []*entity.ChatMessage{
		entity.NewPromptMessage(session.Id, "user", "q", "q", 1),
		entity.NewPromptMessage(session.Id, "assistant", "a", "a", 1),
	}
	if err := repo.SetMessages(session.Id.String(), loaded); err != nil {
		t.Fatalf("SetMessages() error = %v", err)
	}

	stored, _, _ := repo.Get(session.Id.String())
	if len(stored.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(stored.Messages))
	}
	if stored.Messages[0].Id != loaded[0].Id {
		t.Error("SetMessages did not replace the history")
	}
}

func TestApplyTurnBypassesCAS(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()
	repo.Insert(session)

	// Interleave a mutation so any rev check would fail.
	snapshot, rev, _ := repo.Get(session.Id.String())
	snapshot.Name = "interleaved"
	if err := repo.Update(snapshot, rev); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	prompt := entity.NewPromptMessage(session.Id, "user", "q", "q", 10)
	completion := entity.NewCompletionMessage(session.Id, "a", 25)

	if err := repo.ApplyTurn(prompt, completion, entity.TurnUsage{InputTokens: 40, OutputTokens: 25}); err != nil {
		t.Fatalf("ApplyTurn() error = %v", err)
	}

	stored, _, _ := repo.Get(session.Id.String())
	if stored.TokensUsed() != 65 {
		t.Errorf("TokensUsed() = %d, want 65", stored.TokensUsed())
	}
	if stored.Name != "interleaved" {
		t.Errorf("Name = %q, the interleaved rename must survive the turn", stored.Name)
	}
	if len(stored.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(stored.Messages))
	}
	if stored.Messages[0].Id != prompt.Id || stored.Messages[1].Id != completion.Id {
		t.Error("turn messages not appended in order")
	}
	if stored.UpdatedAt == nil {
		t.Error("UpdatedAt not set by the turn")
	}
}

func TestApplyTurnAccumulatesUsageAcrossTurns(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()
	repo.Insert(session)

	// Two turns derived from the same stale snapshot still add up.
	for i := 0; i < 2; i++ {
		prompt := entity.NewPromptMessage(session.Id, "user", "q", "q", 10)
		completion := entity.NewCompletionMessage(session.Id, "a", 5)
		if err := repo.ApplyTurn(prompt, completion, entity.TurnUsage{InputTokens: 10, OutputTokens: 5}); err != nil {
			t.Fatalf("ApplyTurn() error = %v", err)
		}
	}

	stored, _, _ := repo.Get(session.Id.String())
	if stored.TokensUsed() != 30 {
		t.Errorf("TokensUsed() = %d, want 30", stored.TokensUsed())
	}
	if len(stored.Messages) != 4 {
		t.Errorf("message count = %d, want 4", len(stored.Messages))
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := newTestRepo()
	session := entity.NewChatSession()
	repo.Insert(session)

	repo.Delete(session.Id.String())
	if _, _, found := repo.Get(session.Id.String()); found {
		t.Error("session still present after delete")
	}

	// Deleting again must not panic or error.
	repo.Delete(session.Id.String())
	repo.Delete(uuid.NewString())
}
