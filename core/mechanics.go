package core

// MechanicCategory 是用户在向导中可选择的机制大类。
type MechanicCategory struct {
	Key       string
	Mechanics []string
}

// MechanicCategories 是固定顺序的机制大类表，每个大类映射到一组原始机制名。
// 同一机制可以出现在多个大类中（例如 Deduction）。
var MechanicCategories = []MechanicCategory{
	{Key: "strategy", Mechanics: []string{
		"Worker Placement", "Action Points", "Resource Management", "Tech Trees / Tech Tracks",
		"Income", "Market", "Economic", "Investment", "Auction/Bidding", "Trading",
		"Turn Order: Progressive", "Turn Order: Stat-Based", "Score-and-Reset Game",
	}},
	{Key: "luck", Mechanics: []string{
		"Dice Rolling", "Push Your Luck", "Roll / Spin and Move", "Bag Building",
		"Random Production", "Die Icon Resolution", "Chit-Pull System",
	}},
	{Key: "cooperation", Mechanics: []string{
		"Cooperative Game", "Team-Based Game", "Semi-Cooperative Game", "Traitor Game",
		"Communication Limits", "Hidden Movement", "Deduction",
	}},
	{Key: "cards", Mechanics: []string{
		"Card Drafting", "Hand Management", "Set Collection", "Deck Construction",
		"Deck Building", "Deck Bag and Pool Building", "Card Play Conflict Resolution",
		"Drafting", "Multi-Use Cards", "Once-Per-Game Abilities",
	}},
	{Key: "territory", Mechanics: []string{
		"Area Majority / Influence", "Area Movement", "Grid Movement", "Point to Point Movement",
		"Area-Impulse", "Enclosure", "Zone of Control", "Area Enclosure",
	}},
	{Key: "building", Mechanics: []string{
		"Tile Placement", "Pattern Building", "Modular Board", "Map Addition",
		"Puzzle", "Polyomino Placement", "Construction", "Network and Route Building",
	}},
	{Key: "roleplay", Mechanics: []string{
		"Variable Player Powers", "Simulation", "Role Playing", "Character Customization",
		"Legacy Game", "Campaign / Battle Card Driven", "Scenario / Mission / Campaign Game",
		"Storytelling", "Player Judge",
	}},
	{Key: "reaction", Mechanics: []string{
		"Memory", "Real Time", "Speed Matching", "Action / Dexterity",
		"Flicking", "Stacking and Balancing", "Singing",
	}},
	{Key: "social", Mechanics: []string{
		"Negotiation", "Bluffing", "Voting", "Alliances", "Social Deduction",
		"Bribery", "Player Elimination", "Party Game", "Deduction",
		"Hidden Roles", "I Cut You Choose", "Take That",
	}},
}

var mechanicCategoryIndex = func() map[string][]string {
	m := make(map[string][]string, len(MechanicCategories))
	for _, c := range MechanicCategories {
		m[c.Key] = c.Mechanics
	}
	return m
}()

// CategoryMechanics 返回大类对应的原始机制列表；未知大类返回 nil, false。
func CategoryMechanics(key string) ([]string, bool) {
	m, ok := mechanicCategoryIndex[key]
	return m, ok
}

// CategoriesOf 返回与给定机制集合有交集的大类，按大类表顺序。
func CategoriesOf(mechanics []string) []string {
	if len(mechanics) == 0 {
		return nil
	}
	have := make(map[string]struct{}, len(mechanics))
	for _, m := range mechanics {
		have[m] = struct{}{}
	}
	var out []string
	for _, c := range MechanicCategories {
		for _, m := range c.Mechanics {
			if _, ok := have[m]; ok {
				out = append(out, c.Key)
				break
			}
		}
	}
	return out
}
