package detect

import "dupfinder/internal/db"

// ArchiveTo returns an Archive hook that stores results in the sqlite
// archive at dbPath.
func ArchiveTo(dbPath string) func(Result) error {
	return func(r Result) error {
		return db.PersistRun(dbPath, db.Run{
			ID:            r.RunID,
			GeneratedAt:   r.GeneratedAt,
			DocumentCount: r.Documents,
			Clusters:      r.Clusters,
			Report:        r.Report,
		})
	}
}
