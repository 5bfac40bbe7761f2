package commit

import (
	"errors"
	"testing"

	"github.com/claude/planlift/internal/plan"
	"github.com/claude/planlift/internal/storage"
)

// TestPayloadHashStable hashes identical payloads identically regardless
// of day-list order, so client retries replay instead of mismatching.
func TestPayloadHashStable(t *testing.T) {
	p := plan.New()
	d := p.Days["monday"]
	d.Exercises = append(d.Exercises, plan.Exercise{Name: "Press banca", Sets: 3})
	p.Days["monday"] = d

	a := PayloadHash(storage.PolicyOverwriteDays, []string{"monday", "tuesday"}, p)
	b := PayloadHash(storage.PolicyOverwriteDays, []string{"tuesday", "monday"}, p)
	if a != b {
		t.Errorf("hash differs on day order: %s vs %s", a, b)
	}

	c := PayloadHash(storage.PolicyOverwriteAll, []string{"monday", "tuesday"}, p)
	if a == c {
		t.Error("hash identical across different policies")
	}

	d2 := p.Days["monday"]
	d2.Exercises[0].Sets = 4
	p.Days["monday"] = d2
	if PayloadHash(storage.PolicyOverwriteDays, []string{"monday", "tuesday"}, p) == a {
		t.Error("hash identical across different payloads")
	}
}

// TestMatchReplay returns the recorded result for a retry that carries
// the same payload, and an idempotency mismatch for a diverging one.
func TestMatchReplay(t *testing.T) {
	p := plan.New()
	d := p.Days["monday"]
	d.Exercises = append(d.Exercises, plan.Exercise{Name: "Sentadilla", Sets: 4})
	p.Days["monday"] = d

	req := Request{
		Policy:         storage.PolicyOverwriteDays,
		Days:           []string{"monday"},
		IdempotencyKey: "retry-1",
	}
	stored := &storage.CommitResult{NewVersion: 7}
	hash := PayloadHash(req.Policy, req.Days, p)

	res, err := matchReplay(hash, stored, req, p)
	if err != nil {
		t.Fatalf("matchReplay: %v", err)
	}
	if !res.Replayed || res.NewVersion != 7 {
		t.Errorf("res = %+v, want replayed original result", res)
	}
	if stored.Replayed {
		t.Error("stored record mutated by replay")
	}

	req.Policy = storage.PolicyOverwriteAll
	if _, err := matchReplay(hash, stored, req, p); !errors.Is(err, storage.ErrIdempotencyMismatch) {
		t.Errorf("diverging retry: err = %v, want idempotency mismatch", err)
	}
}

// TestClassify keeps conflict-family errors recoverable and hides
// everything else.
func TestClassify(t *testing.T) {
	if err := classify(storage.ErrVersionConflict); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("conflict reclassified: %v", err)
	}
	if err := classify(storage.ErrIdempotencyMismatch); !errors.Is(err, storage.ErrIdempotencyMismatch) {
		t.Errorf("idempotency mismatch reclassified: %v", err)
	}
	if err := classify(errors.New("pq: deadlock detected")); errors.Is(err, storage.ErrVersionConflict) ||
		err.Error() != "commit failed internally" {
		t.Errorf("internal error leaked: %v", err)
	}
}

// TestLabel maps errors to audit/metric labels.
func TestLabel(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{storage.ErrVersionConflict, "conflict"},
		{storage.ErrIdempotencyMismatch, "idempotency_mismatch"},
		{ErrBlocked, "blocked"},
		{ErrNotOwner, "forbidden"},
		{ErrBadTarget, "forbidden"},
		{ErrNotReady, "not_ready"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		if got := label(tc.err); got != tc.want {
			t.Errorf("label(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
