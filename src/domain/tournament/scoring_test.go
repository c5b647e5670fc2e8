package tournament_test

import (
	"testing"
	"time"

	"github.com/podiumlab/racenight/src/domain/shared"
	"github.com/podiumlab/racenight/src/domain/tournament"
)

func TestPointsForPosition(t *testing.T) {
	tests := []struct {
		name         string
		position     int
		totalPlayers int
		want         int
	}{
		{name: "first of eight", position: 1, totalPlayers: 8, want: 16},
		{name: "last of eight", position: 8, totalPlayers: 8, want: 1},
		{name: "fourth of six", position: 4, totalPlayers: 6, want: 7},
		{name: "first of one", position: 1, totalPlayers: 1, want: 2},
		{name: "second of two", position: 2, totalPlayers: 2, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tournament.PointsForPosition(tt.position, tt.totalPlayers)
			if got != tt.want {
				t.Errorf("PointsForPosition(%d, %d) = %d, want %d", tt.position, tt.totalPlayers, got, tt.want)
			}
		})
	}
}

func TestPointsForPosition_MonotoneWithFloor(t *testing.T) {
	for total := 1; total <= 50; total++ {
		prev := tournament.PointsForPosition(1, total)
		for pos := 2; pos <= total; pos++ {
			got := tournament.PointsForPosition(pos, total)
			if got > prev {
				t.Fatalf("points increased from position %d to %d with %d players: %d > %d", pos-1, pos, total, got, prev)
			}
			if got < 1 {
				t.Fatalf("points below floor at position %d with %d players: %d", pos, total, got)
			}
			prev = got
		}
	}
}

// newActiveTournament builds an active tournament with the given nicknames
// already joined and round 0 open.
func newActiveTournament(t *testing.T, nicknames ...string) (*tournament.Tournament, []shared.PlayerID) {
	t.Helper()
	now := time.Now()
	tour, err := tournament.NewTournament("t-1", "Friday Night", len(nicknames), "abc123def456", now)
	if err != nil {
		t.Fatalf("NewTournament() failed: %v", err)
	}
	ids := make([]shared.PlayerID, len(nicknames))
	for i, nickname := range nicknames {
		ids[i] = shared.PlayerID("p-" + nickname)
		if _, err := tour.Join(ids[i], nickname, now); err != nil {
			t.Fatalf("Join(%q) failed: %v", nickname, err)
		}
	}
	if err := tour.Start(now); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	return tour, ids
}

func TestSettlement_OnRoundCompletion(t *testing.T) {
	tour, ids := newActiveTournament(t, "alice", "bob", "carol")
	now := time.Now()

	if err := tour.SubmitPosition(ids[0], 2, now); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if err := tour.SubmitPosition(ids[1], 1, now); err != nil {
		t.Fatalf("second submission failed: %v", err)
	}

	round, _ := tour.Round()
	if round.Completed {
		t.Fatal("round completed before the last player submitted")
	}
	for _, p := range tour.Players {
		if p.TotalPoints != 0 {
			t.Fatalf("points awarded before round completion: %s has %d", p.Nickname, p.TotalPoints)
		}
	}

	if err := tour.SubmitPosition(ids[2], 3, now); err != nil {
		t.Fatalf("third submission failed: %v", err)
	}
	if !round.Completed {
		t.Fatal("round not completed after the third distinct submission")
	}

	// pointsForPosition with 3 players: pos1=6, pos2=4, pos3=2.
	wantPoints := map[shared.PlayerID]int{ids[0]: 4, ids[1]: 6, ids[2]: 2}
	for _, p := range tour.Players {
		if p.TotalPoints != wantPoints[p.ID] {
			t.Errorf("%s: TotalPoints = %d, want %d", p.Nickname, p.TotalPoints, wantPoints[p.ID])
		}
		if len(p.Positions) != 1 {
			t.Errorf("%s: expected 1 recorded position, got %d", p.Nickname, len(p.Positions))
		}
	}
}

func TestSettlement_NeverAppliedTwice(t *testing.T) {
	tour, ids := newActiveTournament(t, "alice", "bob")
	now := time.Now()

	if err := tour.SubmitPosition(ids[0], 1, now); err != nil {
		t.Fatal(err)
	}
	if err := tour.SubmitPosition(ids[1], 2, now); err != nil {
		t.Fatal(err)
	}

	alice, _ := tour.PlayerByID(ids[0])
	settled := alice.TotalPoints

	// Advancing the round settles again only if the flag allows it.
	if err := tour.EndRound(now); err != nil {
		t.Fatalf("EndRound() failed: %v", err)
	}
	if alice.TotalPoints != settled {
		t.Errorf("points re-applied on round advance: %d, want %d", alice.TotalPoints, settled)
	}

	// A second EndRound sees the fresh, incomplete round.
	if err := tour.EndRound(now); err != tournament.ErrRoundIncomplete {
		t.Errorf("second EndRound() = %v, want ErrRoundIncomplete", err)
	}
	if len(tour.Rounds) != 2 {
		t.Errorf("expected 2 rounds after one advance, got %d", len(tour.Rounds))
	}
	if alice.TotalPoints != settled {
		t.Errorf("points changed by failed EndRound: %d, want %d", alice.TotalPoints, settled)
	}
}

func TestMVPTally_BonusAndCounters(t *testing.T) {
	tour, ids := newActiveTournament(t, "alice", "bob", "carol")
	now := time.Now()

	// Two votes for alice, one for bob.
	if err := tour.SubmitMVPVote(ids[1], ids[0], now); err != nil {
		t.Fatal(err)
	}
	if err := tour.SubmitMVPVote(ids[2], ids[0], now); err != nil {
		t.Fatal(err)
	}

	alice, _ := tour.PlayerByID(ids[0])
	if alice.TotalPoints != 0 || alice.MVPVotes != 0 {
		t.Fatal("tally applied before all players voted")
	}

	if err := tour.SubmitMVPVote(ids[0], ids[1], now); err != nil {
		t.Fatal(err)
	}

	if alice.TotalPoints != 1 {
		t.Errorf("MVP bonus = %d, want 1", alice.TotalPoints)
	}
	if alice.MVPVotes != 2 {
		t.Errorf("alice MVPVotes = %d, want 2", alice.MVPVotes)
	}
	bob, _ := tour.PlayerByID(ids[1])
	if bob.MVPVotes != 1 {
		t.Errorf("bob MVPVotes = %d, want 1", bob.MVPVotes)
	}
	if bob.TotalPoints != 0 {
		t.Errorf("non-winner received bonus: %d", bob.TotalPoints)
	}
}

func TestMVPTally_TieBreaksToEarliestJoined(t *testing.T) {
	tour, ids := newActiveTournament(t, "alice", "bob", "carol", "dave")
	now := time.Now()

	// bob and carol get two votes each; bob joined earlier and must win.
	votes := map[shared.PlayerID]shared.PlayerID{
		ids[0]: ids[2], // alice -> carol
		ids[1]: ids[2], // bob -> carol
		ids[2]: ids[1], // carol -> bob
		ids[3]: ids[1], // dave -> bob
	}
	for voter, target := range votes {
		if err := tour.SubmitMVPVote(voter, target, now); err != nil {
			t.Fatalf("vote %s -> %s failed: %v", voter, target, err)
		}
	}

	bob, _ := tour.PlayerByID(ids[1])
	carol, _ := tour.PlayerByID(ids[2])
	if bob.TotalPoints != 1 {
		t.Errorf("tie-break winner bob TotalPoints = %d, want 1", bob.TotalPoints)
	}
	if carol.TotalPoints != 0 {
		t.Errorf("carol TotalPoints = %d, want 0", carol.TotalPoints)
	}
	if bob.MVPVotes != 2 || carol.MVPVotes != 2 {
		t.Errorf("raw vote counters = (%d, %d), want (2, 2)", bob.MVPVotes, carol.MVPVotes)
	}
}

func TestMVPTally_IndependentOfPositionSettlement(t *testing.T) {
	tour, ids := newActiveTournament(t, "alice", "bob")
	now := time.Now()

	// Votes complete before any position is in.
	if err := tour.SubmitMVPVote(ids[0], ids[1], now); err != nil {
		t.Fatal(err)
	}
	if err := tour.SubmitMVPVote(ids[1], ids[0], now); err != nil {
		t.Fatal(err)
	}

	alice, _ := tour.PlayerByID(ids[0])
	if alice.TotalPoints != 1 {
		t.Fatalf("vote settlement did not run independently: alice has %d points", alice.TotalPoints)
	}

	// Position settlement still runs once when submissions complete.
	if err := tour.SubmitPosition(ids[0], 1, now); err != nil {
		t.Fatal(err)
	}
	if err := tour.SubmitPosition(ids[1], 2, now); err != nil {
		t.Fatal(err)
	}
	if alice.TotalPoints != 1+4 {
		t.Errorf("alice TotalPoints = %d, want 5", alice.TotalPoints)
	}
}

func TestLeaderboard_Ordering(t *testing.T) {
	now := time.Now()
	tour, err := tournament.NewTournament("t-1", "Friday Night", 3, "abc123def456", now)
	if err != nil {
		t.Fatal(err)
	}
	for _, nickname := range []string{"p1", "p2", "p3"} {
		if _, err := tour.Join(shared.PlayerID("id-"+nickname), nickname, now); err != nil {
			t.Fatal(err)
		}
	}
	tour.Players[0].TotalPoints, tour.Players[0].MVPVotes = 10, 2
	tour.Players[1].TotalPoints, tour.Players[1].MVPVotes = 10, 1
	tour.Players[2].TotalPoints, tour.Players[2].MVPVotes = 5, 9

	ranked := tour.Leaderboard()
	wantOrder := []string{"p1", "p2", "p3"}
	for i, want := range wantOrder {
		if ranked[i].Nickname != want {
			t.Errorf("rank %d = %s, want %s", i+1, ranked[i].Nickname, want)
		}
	}
}

func TestLeaderboard_StableForEqualKeys(t *testing.T) {
	now := time.Now()
	tour, err := tournament.NewTournament("t-1", "Friday Night", 3, "abc123def456", now)
	if err != nil {
		t.Fatal(err)
	}
	for _, nickname := range []string{"first", "second", "third"} {
		if _, err := tour.Join(shared.PlayerID("id-"+nickname), nickname, now); err != nil {
			t.Fatal(err)
		}
	}

	ranked := tour.Leaderboard()
	wantOrder := []string{"first", "second", "third"}
	for i, want := range wantOrder {
		if ranked[i].Nickname != want {
			t.Errorf("rank %d = %s, want %s (join order must hold on full tie)", i+1, ranked[i].Nickname, want)
		}
	}

	// The projection is a copy; mutating it must not touch the aggregate.
	ranked[0].TotalPoints = 99
	if tour.Players[0].TotalPoints != 0 {
		t.Error("leaderboard mutation leaked into the aggregate")
	}
}
