package main

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerStatsRow represents a player's cumulative statistics record
type PlayerStatsRow struct {
	ID           int64     `json:"id"`
	PlayerName   string    `json:"playerName"`
	TotalScore   int       `json:"totalScore"`
	TotalKills   int       `json:"totalKills"`
	TotalDeaths  int       `json:"totalDeaths"`
	GamesPlayed  int       `json:"gamesPlayed"`
	LastPlayTime time.Time `json:"lastPlayTime"`
	CreatedAt    time.Time `json:"createdAt"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS player_stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_name TEXT NOT NULL UNIQUE,
		total_score INTEGER NOT NULL DEFAULT 0,
		total_kills INTEGER NOT NULL DEFAULT 0,
		total_deaths INTEGER NOT NULL DEFAULT 0,
		games_played INTEGER NOT NULL DEFAULT 0,
		last_play_time DATETIME DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_player_stats_name ON player_stats(player_name);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		Log.Errorw("database migration failed", "err", err)
	}
	return err
}

// FindStatsByName returns a player's stats record, or nil when the player
// has never been seen.
func (db *DB) FindStatsByName(name string) (*PlayerStatsRow, error) {
	row := db.conn.QueryRow(
		`SELECT id, player_name, total_score, total_kills, total_deaths, games_played, last_play_time, created_at
		 FROM player_stats WHERE player_name = ?`,
		name,
	)
	s := &PlayerStatsRow{}
	err := row.Scan(&s.ID, &s.PlayerName, &s.TotalScore, &s.TotalKills, &s.TotalDeaths, &s.GamesPlayed, &s.LastPlayTime, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// SaveStats writes a player's current totals, keyed by name. Since live
// counters are seeded from the stored totals on join, the write overwrites
// rather than accumulates.
func (db *DB) SaveStats(name string, score, kills, deaths int) error {
	_, err := db.conn.Exec(
		`INSERT INTO player_stats (player_name, total_score, total_kills, total_deaths, games_played, last_play_time)
		 VALUES (?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
		 ON CONFLICT(player_name) DO UPDATE SET
			total_score = excluded.total_score,
			total_kills = excluded.total_kills,
			total_deaths = excluded.total_deaths,
			games_played = player_stats.games_played + 1,
			last_play_time = CURRENT_TIMESTAMP`,
		name, score, kills, deaths,
	)
	return err
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
}

// Leaderboard returns top players sorted by the given field
func (db *DB) Leaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	// Whitelist valid order columns
	validCols := map[string]string{
		"score": "total_score",
		"kills": "total_kills",
		"kd":    "CASE WHEN total_deaths > 0 THEN CAST(total_kills AS REAL)/total_deaths ELSE total_kills END",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "total_score"
	}

	query := `SELECT player_name, total_score, total_kills, total_deaths
		FROM player_stats
		ORDER BY ` + col + ` DESC LIMIT ?`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerName, &e.Score, &e.Kills, &e.Deaths); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}
