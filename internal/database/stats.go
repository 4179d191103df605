package database

// GetStats returns aggregate statistics across all owners.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{ByStage: make(map[Stage]int)}

	row := db.conn.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(archived), 0),
		COALESCE(SUM(CASE WHEN fetch_status = 'failed' THEN 1 ELSE 0 END), 0),
		COUNT(DISTINCT owner_id)
		FROM articles`)
	if err := row.Scan(&stats.TotalArticles, &stats.Archived, &stats.FetchFailed, &stats.Owners); err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT stage, COUNT(*) FROM articles WHERE archived = 0 GROUP BY stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		stats.ByStage[Stage(stage)] = count
	}
	return stats, rows.Err()
}
