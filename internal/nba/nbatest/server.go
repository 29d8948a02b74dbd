// Package nbatest serves canned stats.nba.com and cdn.nba.com responses for tests.
package nbatest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Endpoint names accepted by Hits and FailNext.
const (
	CareerStats = "playercareerstats"
	Roster      = "commonteamroster"
	Standings   = "leaguestandingsv3"
	Scoreboard  = "scoreboard"
)

// Server is a fake NBA API. Unknown players get an empty career.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	hits  map[string]int
	fails map[string][]int
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{hits: map[string]int{}, fails: map[string][]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/stats/playercareerstats", s.handle(CareerStats, func(r *http.Request) string {
		body, ok := careers[r.URL.Query().Get("PlayerID")]
		if !ok {
			body = emptyCareer
		}
		return body
	}))
	mux.HandleFunc("/stats/commonteamroster", s.handle(Roster, func(r *http.Request) string {
		return rosterFor(r.URL.Query().Get("TeamID"), r.URL.Query().Get("Season"))
	}))
	mux.HandleFunc("/stats/leaguestandingsv3", s.handle(Standings, func(r *http.Request) string {
		return standings
	}))
	mux.HandleFunc("/live/scoreboard/todaysScoreboard_00.json", s.handle(Scoreboard, func(r *http.Request) string {
		return scoreboard
	}))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) StatsURL() string { return s.URL + "/stats" }
func (s *Server) LiveURL() string { return s.URL + "/live" }

// Hits returns how many requests reached endpoint.
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

// FailNext makes the next len(statuses) requests to endpoint answer with those statuses.
func (s *Server) FailNext(endpoint string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[endpoint] = append(s.fails[endpoint], statuses...)
}

func (s *Server) handle(endpoint string, body func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[endpoint]++
		var status int
		if q := s.fails[endpoint]; len(q) > 0 {
			status, s.fails[endpoint] = q[0], q[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body(r))
	}
}

const careerHeaders = `["PLAYER_ID","SEASON_ID","LEAGUE_ID","TEAM_ID","TEAM_ABBREVIATION","PLAYER_AGE","GP","GS","MIN","FGM","FGA","FG_PCT","FG3M","FG3A","FG3_PCT","FTM","FTA","FT_PCT","OREB","DREB","REB","AST","STL","BLK","TOV","PF","PTS"]`

func career(rows ...string) string {
	return `{"resource":"playercareerstats","resultSets":[` +
		`{"name":"SeasonTotalsRegularSeason","headers":` + careerHeaders + `,"rowSet":[` + strings.Join(rows, ",") + `]},` +
		`{"name":"CareerTotalsRegularSeason","headers":[],"rowSet":[]}]}`
}

var emptyCareer = career()

// Totals per season. LeBron 2024-25 works out to 24.4 ppg, 8.2 apg, 7.8 rpg.
var careers = map[string]string{
	"2544": career(
		`[2544,"2023-24","00",1610612747,"LAL",39,71,71,2504,685,1269,0.540,149,363,0.410,303,404,0.750,61,457,518,589,89,38,245,78,1822]`,
		`[2544,"2024-25","00",1610612747,"LAL",40,70,70,2444,659,1285,0.513,150,399,0.376,242,309,0.782,70,476,546,575,70,39,258,91,1710]`,
	),
	"201939": career(
		`[201939,"2024-25","00",1610612744,"GSW",37,70,70,2252,588,1313,0.448,311,784,0.397,231,248,0.933,35,276,311,421,77,26,207,103,1718]`,
	),
	// traded mid-season: one row per team plus TOT
	"1629029": career(
		`[1629029,"2024-25","00",1610612742,"DAL",26,22,22,784,222,481,0.462,71,194,0.366,114,145,0.786,17,165,182,175,41,9,86,56,629]`,
		`[1629029,"2024-25","00",0,"TOT",26,50,50,1778,469,1043,0.450,167,454,0.368,229,293,0.782,40,370,410,386,90,22,182,126,1334]`,
		`[1629029,"2024-25","00",1610612747,"LAL",26,28,28,994,247,562,0.440,96,260,0.369,115,148,0.777,23,205,228,211,49,13,96,70,705]`,
	),
}

const standings = `{"resource":"leaguestandingsv3","resultSets":[{"name":"Standings","headers":` +
	`["LeagueID","SeasonID","TeamID","TeamCity","TeamName","Conference","PlayoffRank","DivisionRank","WINS","LOSSES","WinPCT"],` +
	`"rowSet":[` +
	`["00","22024",1610612747,"Los Angeles","Lakers","West",3,1,50,32,0.610],` +
	`["00","22024",1610612744,"Golden State","Warriors","West",7,3,48,34,0.585],` +
	`["00","22024",1610612738,"Boston","Celtics","East",2,1,61,21,0.744]` +
	`]}]}`

func rosterFor(teamID, season string) string {
	var rows string
	switch teamID {
	case "1610612747":
		rows = `[1610612747,"` + season + `","LeBron James","23","F",2544],[1610612747,"` + season + `","Luka Doncic","77","G",1629029]`
	case "1610612744":
		rows = `[1610612744,"` + season + `","Stephen Curry","30","G",201939]`
	}
	return `{"resource":"commonteamroster","resultSets":[{"name":"CommonTeamRoster","headers":` +
		`["TeamID","SEASON","PLAYER","NUM","POSITION","PLAYER_ID"],"rowSet":[` + rows + `]}]}`
}

const scoreboard = `{"meta":{"version":1},"scoreboard":{"gameDate":"2025-01-10","leagueId":"00","games":[` +
	`{"gameId":"0022400555","gameStatus":1,"gameStatusText":"7:30 pm ET",` +
	`"homeTeam":{"teamTricode":"GSW","teamCity":"Golden State","teamName":"Warriors","score":0},` +
	`"awayTeam":{"teamTricode":"LAL","teamCity":"Los Angeles","teamName":"Lakers","score":0}},` +
	`{"gameId":"0022400556","gameStatus":3,"gameStatusText":"Final",` +
	`"homeTeam":{"teamTricode":"MIA","teamCity":"Miami","teamName":"Heat","score":104},` +
	`"awayTeam":{"teamTricode":"BOS","teamCity":"Boston","teamName":"Celtics","score":112}}` +
	`]}}`
