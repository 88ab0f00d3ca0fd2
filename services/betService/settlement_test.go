package betService

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/elliotttmiller/NSSPORTS-sub002/config"
	"github.com/elliotttmiller/NSSPORTS-sub002/models"
)

func newMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})

	return gormDB, mock, err
}

func parlayWager(legCount int) *models.Wager {
	w := &models.Wager{
		ID:          1,
		Kind:        models.WagerParlay,
		Status:      models.StatusPending,
		TotalStake:  decimal.NewFromInt(100),
		TotalPayout: decimal.RequireFromString("695.79"),
		TotalOdds:   596,
	}
	for i := 0; i < legCount; i++ {
		w.Legs = append(w.Legs, testLeg(gameID(i), -110))
	}
	return w
}

func teaserWager(legCount int, pushRule models.PushRule) *models.Wager {
	w := &models.Wager{
		ID:          2,
		Kind:        models.WagerTeaser,
		Status:      models.StatusPending,
		TeaserType:  "3-team",
		PushRule:    pushRule,
		TotalStake:  decimal.NewFromInt(100),
		TotalPayout: decimal.RequireFromString("260"), // +160 on 100
	}
	for i := 0; i < legCount; i++ {
		w.Legs = append(w.Legs, testLeg(gameID(i), -110))
	}
	return w
}

func gameID(i int) string {
	return string(rune('a' + i))
}

func gradeAll(w *models.Wager, results ...models.LegResult) map[string]models.LegResult {
	grades := make(map[string]models.LegResult)
	for i, leg := range w.Legs {
		grades[leg.Key()] = results[i]
	}
	return grades
}

func TestResolveParlay(t *testing.T) {
	cfg := config.Default()
	w := parlayWager(3)

	tests := []struct {
		name    string
		grades  []models.LegResult
		status  models.WagerStatus
		payout  string
	}{
		{"all legs win", []models.LegResult{models.LegWon, models.LegWon, models.LegWon}, models.StatusWon, "695.79"},
		{"any loss sinks the ticket", []models.LegResult{models.LegWon, models.LegLost, models.LegWon}, models.StatusLost, "0"},
		{"loss beats push", []models.LegResult{models.LegPush, models.LegLost, models.LegWon}, models.StatusLost, "0"},
		{"push with no loss refunds the stake", []models.LegResult{models.LegWon, models.LegPush, models.LegWon}, models.StatusPush, "100"},
		{"all pushes refund the stake", []models.LegResult{models.LegPush, models.LegPush, models.LegPush}, models.StatusPush, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ResolveWager(w, gradeAll(w, tt.grades...), cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome.Status != tt.status {
				t.Errorf("expected status %s, got %s", tt.status, outcome.Status)
			}
			assertDecimal(t, tt.payout, outcome.Payout, "payout")
		})
	}
}

func TestResolveSingle(t *testing.T) {
	cfg := config.Default()
	w := &models.Wager{
		ID:          3,
		Kind:        models.WagerSingle,
		Status:      models.StatusPending,
		TotalStake:  decimal.NewFromInt(110),
		TotalPayout: decimal.NewFromInt(210),
		Legs:        []models.Leg{testLeg("g1", -110)},
	}

	outcome, err := ResolveWager(w, gradeAll(w, models.LegWon), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDecimal(t, "210", outcome.Payout, "won single")

	outcome, _ = ResolveWager(w, gradeAll(w, models.LegPush), cfg)
	assertDecimal(t, "110", outcome.Payout, "pushed single")
	if outcome.Status != models.StatusPush {
		t.Errorf("expected push, got %s", outcome.Status)
	}

	outcome, _ = ResolveWager(w, gradeAll(w, models.LegLost), cfg)
	assertDecimal(t, "0", outcome.Payout, "lost single")
}

func TestResolveTeaserLoss(t *testing.T) {
	cfg := config.Default()
	w := teaserWager(3, models.PushRuleRevert)

	outcome, err := ResolveWager(w, gradeAll(w, models.LegWon, models.LegLost, models.LegPush), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.StatusLost || !outcome.Payout.IsZero() {
		t.Errorf("a lost leg must lose the teaser regardless of push rule, got %s/%s", outcome.Status, outcome.Payout)
	}
}

func TestResolveTeaserAllWon(t *testing.T) {
	cfg := config.Default()
	w := teaserWager(3, models.PushRuleRevert)

	outcome, err := ResolveWager(w, gradeAll(w, models.LegWon, models.LegWon, models.LegWon), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.StatusWon {
		t.Errorf("expected won, got %s", outcome.Status)
	}
	assertDecimal(t, "260", outcome.Payout, "full teaser payout")
}

// Under the push rule, any mix of pushes with no loss pays back exactly the
// stake, regardless of which legs pushed.
func TestResolveTeaserPushRuleIdempotence(t *testing.T) {
	cfg := config.Default()
	w := teaserWager(3, models.PushRulePush)

	outcomes := []models.LegResult{models.LegWon, models.LegPush}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				grades := []models.LegResult{outcomes[i], outcomes[j], outcomes[k]}
				if i+j+k == 0 {
					continue // no pushes
				}
				outcome, err := ResolveWager(w, gradeAll(w, grades...), cfg)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if outcome.Status != models.StatusPush {
					t.Errorf("grades %v: expected push, got %s", grades, outcome.Status)
				}
				if !outcome.Payout.Equal(w.TotalStake) {
					t.Errorf("grades %v: expected stake refund of %s, got %s", grades, w.TotalStake, outcome.Payout)
				}
			}
		}
	}
}

func TestResolveTeaserLoseRule(t *testing.T) {
	cfg := config.Default()
	w := teaserWager(3, models.PushRuleLose)

	outcome, err := ResolveWager(w, gradeAll(w, models.LegWon, models.LegWon, models.LegPush), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.StatusLost || !outcome.Payout.IsZero() {
		t.Errorf("lose rule must turn a push into a loss, got %s/%s", outcome.Status, outcome.Payout)
	}
}

// One push, two wins, revert rule: the teaser drops to the 2-team tier and
// re-prices the original stake at that tier's fixed odds.
func TestResolveTeaserRevert(t *testing.T) {
	cfg := config.Default()
	w := teaserWager(3, models.PushRuleRevert)

	outcome, err := ResolveWager(w, gradeAll(w, models.LegWon, models.LegWon, models.LegPush), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.StatusWon {
		t.Fatalf("expected won after revert, got %s", outcome.Status)
	}
	if outcome.RevertedTier != "2-team" {
		t.Errorf("expected revert to the 2-team tier, got %q", outcome.RevertedTier)
	}
	// 100 at the 2-team tier's -110.
	assertDecimal(t, "190.91", outcome.Payout, "reverted payout")
}

// Two pushes leave one winning leg, below every tier's minimum: revert falls
// back to a stake refund.
func TestResolveTeaserRevertFallsBackToPush(t *testing.T) {
	cfg := config.Default()
	w := teaserWager(3, models.PushRuleRevert)

	outcome, err := ResolveWager(w, gradeAll(w, models.LegWon, models.LegPush, models.LegPush), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.StatusPush {
		t.Fatalf("expected push fallback, got %s", outcome.Status)
	}
	assertDecimal(t, "100", outcome.Payout, "fallback refund")
}

func TestResolveCustom(t *testing.T) {
	cfg := config.Default()

	straight := testLeg("g1", -110)
	straight.Stake = decimal.NewFromInt(100)
	p1 := testLeg("g2", -110)
	p1.InParlay = true
	p2 := testLeg("g3", -110)
	p2.InParlay = true

	w := &models.Wager{
		ID:          4,
		Kind:        models.WagerCustom,
		Status:      models.StatusPending,
		TotalStake:  decimal.NewFromInt(150),
		ParlayStake: decimal.NewFromInt(50),
		Legs:        []models.Leg{straight, p1, p2},
	}

	// Straight leg wins, parlay loses: payout is the straight leg alone.
	grades := map[string]models.LegResult{
		straight.Key(): models.LegWon,
		p1.Key():       models.LegWon,
		p2.Key():       models.LegLost,
	}
	outcome, err := ResolveWager(w, grades, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.StatusWon {
		t.Errorf("expected won, got %s", outcome.Status)
	}
	assertDecimal(t, "190.91", outcome.Payout, "straight-only payout")

	// Straight leg loses, parlay pushes: stake comes back for the parlay
	// subset only, and nothing won.
	grades[straight.Key()] = models.LegLost
	grades[p2.Key()] = models.LegPush
	outcome, err = ResolveWager(w, grades, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.StatusPush {
		t.Errorf("expected push, got %s", outcome.Status)
	}
	assertDecimal(t, "50", outcome.Payout, "parlay refund")

	// Everything loses.
	grades[p1.Key()] = models.LegLost
	outcome, err = ResolveWager(w, grades, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.StatusLost || !outcome.Payout.IsZero() {
		t.Errorf("expected a total loss, got %s/%s", outcome.Status, outcome.Payout)
	}
}

func TestResolveWagerIncompleteGrades(t *testing.T) {
	cfg := config.Default()
	w := parlayWager(3)

	grades := gradeAll(w, models.LegWon, models.LegWon, models.LegWon)
	delete(grades, w.Legs[2].Key())

	if _, err := ResolveWager(w, grades, cfg); !errors.Is(err, ErrIncompleteGrades) {
		t.Errorf("expected ErrIncompleteGrades, got %v", err)
	}

	grades[w.Legs[2].Key()] = models.LegPending
	if _, err := ResolveWager(w, grades, cfg); !errors.Is(err, ErrIncompleteGrades) {
		t.Errorf("expected ErrIncompleteGrades for a pending grade, got %v", err)
	}
}

func wagerRows(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "kind", "status", "user_id", "total_stake", "total_payout"}).
		AddRow(1, "single", status, 9, "110", "210")
}

func legRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "wager_id", "game_id", "bet_type", "selection", "odds"}).
		AddRow(11, 1, "g1", "moneyline", "home", -110)
}

func TestSettleRejectsAlreadySettled(t *testing.T) {
	db, mock, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	mock.ExpectQuery("SELECT (.+) FROM `wagers`").WillReturnRows(wagerRows("won"))
	mock.ExpectQuery("SELECT (.+) FROM `legs`").WillReturnRows(legRows())

	grades := map[string]models.LegResult{"g1|moneyline|home": models.LegWon}
	_, err = Settle(db, config.Default(), 1, grades)
	if !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// The status transition is a compare-and-swap; when another settler got there
// first the update touches zero rows and this attempt rolls back.
func TestSettleLosesCompareAndSwapRace(t *testing.T) {
	db, mock, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	mock.ExpectQuery("SELECT (.+) FROM `wagers`").WillReturnRows(wagerRows("pending"))
	mock.ExpectQuery("SELECT (.+) FROM `legs`").WillReturnRows(legRows())
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `wagers` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	grades := map[string]models.LegResult{"g1|moneyline|home": models.LegWon}
	_, err = Settle(db, config.Default(), 1, grades)
	if !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// Settling a pending wager as lost credits nothing: no balance update, no
// ledger entry, only the status transition and the loss counter.
func TestSettleLostWagerLeavesBalanceUntouched(t *testing.T) {
	db, mock, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	mock.ExpectQuery("SELECT (.+) FROM `wagers`").WillReturnRows(wagerRows("pending"))
	mock.ExpectQuery("SELECT (.+) FROM `legs`").WillReturnRows(legRows())
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `wagers` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `legs` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `users` SET `total_bets_lost`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	grades := map[string]models.LegResult{"g1|moneyline|home": models.LegLost}
	wager, err := Settle(db, config.Default(), 1, grades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wager.Status != models.StatusLost {
		t.Errorf("expected lost, got %s", wager.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
