package catalog

import "github.com/genyouth/wellness/internal/domain"

// Default returns a fresh copy of the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Achievements: defaultAchievements(),
		Challenges:   defaultChallenges(),
		Milestones:   defaultMilestones(),
		Content:      defaultContent(),
		Resources:    defaultResources(),
	}
}

func defaultAchievements() []domain.AchievementDef {
	return []domain.AchievementDef{
		{
			ID:          "first_steps",
			Title:       "First Steps",
			Description: "Complete your first wellness check-in",
			Icon:        "👶",
			Category:    domain.CatMilestone,
			Points:      50,
			Rarity:      domain.RarityCommon,
			Condition:   domain.Condition{Kind: domain.CondActivitiesAtLeast, Threshold: 1},
		},
		{
			ID:          "week_warrior",
			Title:       "Week Warrior",
			Description: "Maintain a 7-day wellness streak",
			Icon:        "🔥",
			Category:    domain.CatConsistency,
			Points:      200,
			Rarity:      domain.RarityRare,
			Condition:   domain.Condition{Kind: domain.CondStreakAtLeast, Threshold: 7},
		},
		{
			ID:          "mindful_master",
			Title:       "Mindful Master",
			Description: "Complete 50 mindfulness sessions",
			Icon:        "🧘",
			Category:    domain.CatWellness,
			Points:      300,
			Rarity:      domain.RarityEpic,
			Condition:   domain.Condition{Kind: domain.CondActivitiesAtLeast, Threshold: 50},
		},
		{
			ID:          "social_butterfly",
			Title:       "Social Butterfly",
			Description: "Complete 10 challenges",
			Icon:        "🦋",
			Category:    domain.CatSocial,
			Points:      150,
			Rarity:      domain.RarityRare,
			Condition:   domain.Condition{Kind: domain.CondChallengesCompletedAtLeast, Threshold: 10},
		},
		{
			ID:          "wellness_legend",
			Title:       "Wellness Legend",
			Description: "Reach 1000 wellness points",
			Icon:        "👑",
			Category:    domain.CatMilestone,
			Points:      500,
			Rarity:      domain.RarityLegendary,
			Condition:   domain.Condition{Kind: domain.CondPointsAtLeast, Threshold: 1000},
		},
		{
			ID:          "perfect_month",
			Title:       "Perfect Month",
			Description: "Keep a 30-day wellness streak",
			Icon:        "💎",
			Category:    domain.CatConsistency,
			Points:      1000,
			Rarity:      domain.RarityLegendary,
			Condition:   domain.Condition{Kind: domain.CondLongestStreakAtLeast, Threshold: 30},
		},
	}
}

func defaultChallenges() []domain.ChallengeDef {
	return []domain.ChallengeDef{
		{ID: "daily_mindfulness", Title: "Daily Mindfulness", Description: "Practice mindfulness for 10 minutes", Category: domain.ChallengeDaily, Target: 10, Points: 25},
		{ID: "hydration_hero", Title: "Hydration Hero", Description: "Drink 8 glasses of water", Category: domain.ChallengeDaily, Target: 8, Points: 20},
		{ID: "social_connection", Title: "Social Connection", Description: "Have 3 meaningful conversations", Category: domain.ChallengeDaily, Target: 3, Points: 30},
		{ID: "wellness_week", Title: "Wellness Week", Description: "Complete all daily goals for 7 days", Category: domain.ChallengeWeekly, Target: 7, Points: 150},
		{ID: "gratitude_journey", Title: "Gratitude Journey", Description: "Write 20 gratitude journal entries", Category: domain.ChallengeMonthly, Target: 20, Points: 300},
	}
}

func defaultMilestones() []domain.MilestoneDef {
	return []domain.MilestoneDef{
		{ID: "novice", Title: "Wellness Novice", Description: "Your first milestone on the wellness journey", RequiredPoints: 100, Rewards: []string{"Custom avatar frame", "Wellness badge"}},
		{ID: "explorer", Title: "Mindful Explorer", Description: "Developing consistent wellness habits", RequiredPoints: 500, Rewards: []string{"Exclusive themes", "Priority support"}},
		{ID: "champion", Title: "Wellness Champion", Description: "A true advocate for mental health", RequiredPoints: 1000, Rewards: []string{"Champion badge", "Mentor access", "Special challenges"}},
		{ID: "zen_master", Title: "Zen Master", Description: "Achieved exceptional wellness consistency", RequiredPoints: 1500, Rewards: []string{"Master title", "Custom wellness plan", "VIP community access"}},
		{ID: "legend", Title: "Wellness Legend", Description: "The ultimate wellness achievement", RequiredPoints: 2500, Rewards: []string{"Legend status", "Lifetime premium", "Personal coach session"}},
	}
}

func moods(tags ...string) []domain.MoodTag {
	out := make([]domain.MoodTag, len(tags))
	for i, t := range tags {
		out[i] = domain.MoodTag(t)
	}
	return out
}

func defaultContent() []domain.ContentItem {
	return []domain.ContentItem{
		// Tracks
		{ID: "gentle-rain", Title: "Gentle Rain", Artist: "Nature Sounds", Kind: domain.KindTrack, Category: domain.CategoryAnxiety, Moods: moods("anxious", "stressed", "overwhelmed"), DurationSeconds: 600},
		{ID: "deep-breathing-guide", Title: "Deep Breathing Guide", Artist: "Wellness Coach", Kind: domain.KindTrack, Category: domain.CategoryAnxiety, Moods: moods("anxious", "panicked"), DurationSeconds: 480},
		{ID: "forest-ambience", Title: "Forest Ambience", Artist: "Nature Sounds", Kind: domain.KindTrack, Category: domain.CategoryAnxiety, Moods: moods("stressed", "tense"), DurationSeconds: 720},
		{ID: "morning-motivation", Title: "Morning Motivation", Artist: "Positive Vibes", Kind: domain.KindTrack, Category: domain.CategoryEnergy, Moods: moods("sad", "low", "unmotivated"), DurationSeconds: 240},
		{ID: "confidence-builder", Title: "Confidence Builder", Artist: "Empowerment Music", Kind: domain.KindTrack, Category: domain.CategoryEnergy, Moods: moods("insecure", "doubtful"), DurationSeconds: 300},
		{ID: "study-beats", Title: "Study Beats", Artist: "Focus Music", Kind: domain.KindTrack, Category: domain.CategoryFocus, Moods: moods("distracted", "unfocused"), DurationSeconds: 1800},
		{ID: "white-noise", Title: "White Noise", Artist: "Ambient Sounds", Kind: domain.KindTrack, Category: domain.CategoryFocus, Moods: moods("distracted", "restless"), DurationSeconds: 3600},
		{ID: "ocean-waves", Title: "Ocean Waves", Artist: "Nature Sounds", Kind: domain.KindTrack, Category: domain.CategorySleep, Moods: moods("restless", "tired", "anxious"), DurationSeconds: 2400},
		{ID: "sleep-meditation", Title: "Sleep Meditation", Artist: "Mindfulness Guide", Kind: domain.KindTrack, Category: domain.CategorySleep, Moods: moods("restless", "worried"), DurationSeconds: 1200},

		// Daily activities
		{ID: "mindfulness-practice", Title: "Mindfulness Practice", Description: "Twenty minutes of guided mindfulness", Kind: domain.KindActivity, Category: domain.CategoryMindfulness, Moods: moods("stressed", "anxious", "unfocused"), DurationSeconds: 1200},
		{ID: "physical-exercise", Title: "Physical Exercise", Description: "Thirty minutes of movement", Kind: domain.KindActivity, Category: domain.CategoryPhysical, Moods: moods("low", "tired", "tense"), DurationSeconds: 1800},
		{ID: "social-interaction", Title: "Social Interaction", Description: "Reach out to three people", Kind: domain.KindActivity, Category: domain.CategorySocial, Moods: moods("sad", "lonely"), DurationSeconds: 900},
		{ID: "gratitude-journal", Title: "Gratitude Journal", Description: "Write one gratitude entry", Kind: domain.KindActivity, Category: domain.CategoryMindfulness, Moods: moods("sad", "low", "worried"), DurationSeconds: 300},

		// Coping tools
		{ID: "safety-planning", Title: "Safety Planning", Description: "Create a personalized safety plan for crisis situations", Kind: domain.KindTool, Category: domain.CategoryCoping, Moods: moods("overwhelmed", "panicked"), DurationSeconds: 900},
		{ID: "trusted-contacts", Title: "Trusted Contacts", Description: "Add emergency contacts who can support you", Kind: domain.KindTool, Category: domain.CategoryCoping, Moods: moods("lonely", "overwhelmed"), DurationSeconds: 300},
		{ID: "coping-strategies", Title: "Coping Strategies", Description: "Quick access to your personalized coping tools", Kind: domain.KindTool, Category: domain.CategoryCoping, Moods: moods("anxious", "stressed", "panicked"), DurationSeconds: 600},
	}
}

func defaultResources() []domain.CrisisResource {
	return []domain.CrisisResource{
		{ID: "988-lifeline", Name: "988 Suicide & Crisis Lifeline", Phone: "988", Description: "Free and confidential emotional support", Availability: "24/7", Type: domain.ResourceCrisis, Country: "US"},
		{ID: "crisis-text-line", Name: "Crisis Text Line", Phone: "741741", Description: "Text HOME to connect with a crisis counselor", Availability: "24/7", Type: domain.ResourceText, Country: "US"},
		{ID: "samhsa-helpline", Name: "SAMHSA National Helpline", Phone: "1-800-662-4357", Description: "Treatment referral and information service", Availability: "24/7", Type: domain.ResourceCrisis, Country: "US"},
		{ID: "teen-line", Name: "Teen Line", Phone: "1-800-852-8336", Description: "Teens helping teens through difficult times", Availability: "6 PM - 10 PM PST", Type: domain.ResourceCrisis, Country: "US"},
		{ID: "lgbt-hotline", Name: "LGBT National Hotline", Phone: "1-888-843-4564", Description: "Support for LGBTQ+ youth and adults", Availability: "1 PM - 9 PM PST", Type: domain.ResourceCrisis, Country: "US"},
		{ID: "findahelpline", Name: "Find A Helpline", URL: "https://findahelpline.com", Description: "Directory of free, confidential helplines worldwide", Availability: "24/7", Type: domain.ResourceChat},
	}
}
