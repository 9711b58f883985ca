package database

import (
	"errors"
	"health_track_backend/internal/model"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// Seed 写入默认项目、前后测、术语表和介绍视频；已存在则跳过
func Seed(db *gorm.DB, opts SeedOptions) error {
	return db.Transaction(func(tx *gorm.DB) error {
		program := model.HealthTrackModule{
			Slug:        "long-covid",
			Title:       "Long Covid",
			Description: "Track symptoms, medications and prepare for doctor visits.",
			Published:   true,
		}
		err := tx.Where("slug = ?", program.Slug).First(&program).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(&program).Error; err != nil {
				return err
			}
			if err := seedProgramContent(tx, program.ID); err != nil {
				return err
			}
			log.Printf("Seeded program %s", program.Slug)
		} else if err != nil {
			return err
		}

		if opts.AdminEmail == "" || opts.AdminPassword == "" {
			return nil
		}
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", opts.AdminEmail).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return tx.Create(&model.User{
			Name:     "Administrator",
			Email:    opts.AdminEmail,
			Password: string(hashed),
			Role:     model.Admin,
		}).Error
	})
}

func scaleOptions() datatypes.JSON {
	return datatypes.JSON(`["0","1","2","3","4","5","6","7","8","9","10"]`)
}

func seedProgramContent(tx *gorm.DB, programID uint) error {
	questions := []model.AssessmentQuestion{
		{QuestionType: "scale", Content: "How would you rate your overall energy this week?", Options: scaleOptions(), SortOrder: 1},
		{QuestionType: "scale", Content: "How much do your symptoms limit your daily activities?", Options: scaleOptions(), SortOrder: 2},
		{QuestionType: "single_choice", Content: "How confident are you in describing your symptoms to a doctor?",
			Options: datatypes.JSON(`["Not confident","Somewhat confident","Very confident"]`), SortOrder: 3},
		{QuestionType: "text", Content: "What would you most like to improve?", SortOrder: 4},
	}

	for _, kind := range []model.AssessmentKind{model.AssessmentPre, model.AssessmentPost} {
		title := "Before you start"
		if kind == model.AssessmentPost {
			title = "Program review"
		}
		a := model.Assessment{ProgramID: programID, Kind: kind, Title: title}
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		qs := make([]model.AssessmentQuestion, len(questions))
		for i, q := range questions {
			q.AssessmentID = a.ID
			qs[i] = q
		}
		if err := tx.Create(&qs).Error; err != nil {
			return err
		}
	}

	terms := []model.GlossaryTerm{
		{ProgramID: programID, Term: "Post-exertional malaise", Category: "symptoms",
			Definition: "A worsening of symptoms after physical or mental effort, often delayed by a day or more."},
		{ProgramID: programID, Term: "Pacing", Category: "self-care",
			Definition: "Planning activity and rest to stay within your energy limits."},
		{ProgramID: programID, Term: "Brain fog", Category: "symptoms",
			Definition: "Difficulty concentrating, remembering or thinking clearly."},
		{ProgramID: programID, Term: "POTS", Category: "conditions",
			Definition: "Postural orthostatic tachycardia syndrome: a large heart-rate increase on standing."},
	}
	if err := tx.Create(&terms).Error; err != nil {
		return err
	}

	return tx.Create(&model.Video{
		ProgramID:   programID,
		Title:       "Welcome to the program",
		Description: "How the program works and what each step unlocks.",
		URL:         "/uploads/videos/intro.mp4",
		IsIntro:     true,
		SortOrder:   1,
	}).Error
}
