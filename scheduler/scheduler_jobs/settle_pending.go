package scheduler_jobs

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"gorm.io/gorm"

	"github.com/elliotttmiller/NSSPORTS-sub002/config"
	"github.com/elliotttmiller/NSSPORTS-sub002/models"
	"github.com/elliotttmiller/NSSPORTS-sub002/models/external"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/betService"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/common"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/extService"
)

// SettlePendingWagers sweeps all pending wagers, grades the legs whose games
// are final, and settles every wager with a complete grade set. Wagers with
// ungraded legs are left alone until a later sweep.
func SettlePendingWagers(db *gorm.DB, cfg *config.Engine, feed extService.ScoreFeed) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in SettlePendingWagers", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in SettlePendingWagers: %v", r)
		}
	}()

	var pending []models.Wager
	result := db.Preload("Legs").Where("status = ?", models.StatusPending).Find(&pending)
	if result.Error != nil {
		return result.Error
	}
	if len(pending) == 0 {
		return nil
	}

	gameIDs := collectGameIDs(pending)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scores, err := feed.FinalScores(ctx, gameIDs)
	if err != nil {
		common.RecordError(db, "settle_pending", err)
		return err
	}

	settled := 0
	for _, wager := range pending {
		grades, complete := GradeWagerLegs(wager, scores)
		if !complete {
			continue
		}

		if _, settleErr := betService.Settle(db, cfg, wager.ID, grades); settleErr != nil {
			// Another settler may have won the race; that is not a failure.
			if settleErr == betService.ErrAlreadySettled {
				continue
			}
			common.RecordError(db, "settle_pending", settleErr)
			continue
		}
		settled++
	}

	if settled > 0 {
		log.Printf("settled %d wager(s)", settled)
	}
	return nil
}

func collectGameIDs(wagers []models.Wager) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, w := range wagers {
		for _, leg := range w.Legs {
			if !seen[leg.GameID] {
				seen[leg.GameID] = true
				ids = append(ids, leg.GameID)
			}
		}
	}
	return ids
}

// GradeWagerLegs builds the grade set for one wager from final scores. Legs
// already carrying a terminal result (prop legs graded by an external feed)
// keep it. The second return is false until every leg is gradeable.
func GradeWagerLegs(wager models.Wager, scores map[string]external.FinalScore) (map[string]models.LegResult, bool) {
	grades := make(map[string]models.LegResult, len(wager.Legs))
	for _, leg := range wager.Legs {
		if leg.Result != "" && leg.Result != models.LegPending {
			grades[leg.Key()] = leg.Result
			continue
		}

		score, ok := scores[leg.GameID]
		if !ok {
			return nil, false
		}
		grade, ok := betService.GradeLeg(leg, score)
		if !ok {
			return nil, false
		}
		grades[leg.Key()] = grade
	}
	return grades, true
}
