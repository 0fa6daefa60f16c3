package fpl

// helpers shared by the package tests

func score(n int) *int {
	return &n
}

func played(id, event, home, away, homeGoals, awayGoals int) Fixture {
	return Fixture{
		ID:         id,
		Event:      event,
		HomeTeamID: home,
		AwayTeamID: away,
		HomeScore:  score(homeGoals),
		AwayScore:  score(awayGoals),
		Finished:   true,
	}
}

func unplayed(id, event, home, away int) Fixture {
	return Fixture{ID: id, Event: event, HomeTeamID: home, AwayTeamID: away}
}

// twoTeamSnapshot has each team playing exactly two finished games at each venue.
// Team 1 wins 2-0 and draws 1-1 at home and loses 0-3 and 1-2 away
func twoTeamSnapshot() *Snapshot {
	return &Snapshot{
		RunID: "two-team",
		Teams: []Team{
			{ID: 1, ShortName: "AAA", Name: "Alpha"},
			{ID: 2, ShortName: "BBB", Name: "Bravo"},
		},
		Fixtures: []Fixture{
			played(1, 1, 1, 2, 2, 0),
			played(2, 2, 2, 1, 3, 0),
			played(3, 3, 1, 2, 1, 1),
			played(4, 4, 2, 1, 2, 1),
			unplayed(5, 5, 1, 2),
		},
	}
}

// threeTeamSnapshot has team 3 playing only away from home
func threeTeamSnapshot() *Snapshot {
	return &Snapshot{
		RunID: "three-team",
		Teams: []Team{
			{ID: 1, ShortName: "AAA", Name: "Alpha"},
			{ID: 2, ShortName: "BBB", Name: "Bravo"},
			{ID: 3, ShortName: "CCC", Name: "Charlie"},
		},
		Fixtures: []Fixture{
			played(1, 1, 1, 2, 2, 0),
			played(2, 1, 2, 1, 1, 1),
			played(3, 2, 1, 3, 1, 0),
			played(4, 2, 2, 3, 2, 2),
			unplayed(5, 3, 3, 1),
		},
	}
}
