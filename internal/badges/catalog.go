package badges

import "github.com/geunssam/dodgeballhub/internal/dodgeball"

// DefaultVersion identifies the built-in catalog below.
const DefaultVersion = "2025.1"

func def(id string, tier dodgeball.Tier, m dodgeball.Metric, threshold int, emoji, name, desc string) dodgeball.BadgeDefinition {
	return dodgeball.BadgeDefinition{
		ID:          id,
		Tier:        tier,
		Metric:      m,
		Threshold:   threshold,
		Emoji:       emoji,
		Name:        name,
		Description: desc,
	}
}

// Default returns the built-in badge catalog.
func Default() Catalog {
	return Catalog{
		Version: DefaultVersion,
		Definitions: []dodgeball.BadgeDefinition{
			def("hits-beginner", dodgeball.TierBeginner, dodgeball.MetricHits, 10, "🎯", "Sharp Thrower", "Land 10 hits"),
			def("hits-skilled", dodgeball.TierSkilled, dodgeball.MetricHits, 30, "🏹", "Marksman", "Land 30 hits"),
			def("hits-master", dodgeball.TierMaster, dodgeball.MetricHits, 60, "💥", "Cannon Arm", "Land 60 hits"),
			def("hits-legend", dodgeball.TierLegend, dodgeball.MetricHits, 100, "☄️", "Meteor", "Land 100 hits"),

			def("passes-beginner", dodgeball.TierBeginner, dodgeball.MetricPasses, 10, "🤝", "Team Player", "Make 10 passes"),
			def("passes-skilled", dodgeball.TierSkilled, dodgeball.MetricPasses, 30, "🔄", "Playmaker", "Make 30 passes"),
			def("passes-master", dodgeball.TierMaster, dodgeball.MetricPasses, 60, "🧠", "Field General", "Make 60 passes"),
			def("passes-legend", dodgeball.TierLegend, dodgeball.MetricPasses, 100, "👑", "Maestro", "Make 100 passes"),

			def("sacrifices-beginner", dodgeball.TierBeginner, dodgeball.MetricSacrifices, 5, "🛡️", "Guardian", "Sacrifice for a teammate 5 times"),
			def("sacrifices-skilled", dodgeball.TierSkilled, dodgeball.MetricSacrifices, 15, "🦸", "Protector", "Sacrifice for a teammate 15 times"),
			def("sacrifices-master", dodgeball.TierMaster, dodgeball.MetricSacrifices, 30, "🏰", "Bulwark", "Sacrifice for a teammate 30 times"),
			def("sacrifices-legend", dodgeball.TierLegend, dodgeball.MetricSacrifices, 50, "🌟", "Hero of the Court", "Sacrifice for a teammate 50 times"),

			def("cookies-beginner", dodgeball.TierBeginner, dodgeball.MetricCookies, 5, "🍪", "Cookie Collector", "Earn 5 cookies"),
			def("cookies-skilled", dodgeball.TierSkilled, dodgeball.MetricCookies, 15, "🧁", "Sweet Tooth", "Earn 15 cookies"),
			def("cookies-master", dodgeball.TierMaster, dodgeball.MetricCookies, 30, "🎂", "Baker", "Earn 30 cookies"),
			def("cookies-legend", dodgeball.TierLegend, dodgeball.MetricCookies, 50, "🏆", "Cookie Monarch", "Earn 50 cookies"),

			def("games-first", dodgeball.TierSpecial, dodgeball.MetricGamesPlayed, 1, "🎉", "First Match", "Play your first match"),
			def("games-veteran", dodgeball.TierSpecial, dodgeball.MetricGamesPlayed, 20, "🎖️", "Veteran", "Play 20 matches"),
			def("score-century", dodgeball.TierSpecial, dodgeball.MetricTotalScore, 100, "💯", "Centurion", "Reach a total score of 100"),
		},
	}
}
