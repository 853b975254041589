package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"github.com/xelth-com/cotaqc/internal/config"
	"github.com/xelth-com/cotaqc/internal/database"
)

// Prints row counts and open work order progress straight from PostgreSQL,
// bypassing gorm. The embedded server must already be running.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", database.DSN(database.ConnectionConfig(cfg.Database)))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("❌ Cannot reach database: %v", err)
	}

	fmt.Println("Tables:")
	for _, table := range []string{"user_auths", "drawings", "dimensions", "work_orders", "samples", "measurements", "migrations"} {
		var n int64
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			fmt.Printf("  %-14s ❌ %v\n", table, err)
			continue
		}
		fmt.Printf("  %-14s %d\n", table, n)
	}

	rows, err := db.Query(`
		SELECT w.code,
		       COUNT(DISTINCT s.id) * COUNT(DISTINCT d.id) AS expected,
		       COUNT(DISTINCT m.id) AS measured
		FROM work_orders w
		LEFT JOIN samples s ON s.work_order_id = w.id
		LEFT JOIN dimensions d ON d.drawing_id = w.drawing_id
		LEFT JOIN measurements m ON m.sample_id = s.id AND m.dimension_id = d.id
		WHERE w.status = 'aberta'
		GROUP BY w.id, w.code
		ORDER BY w.created_at DESC
		LIMIT 20
	`)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	fmt.Println("\nOpen work orders:")
	fmt.Println("Code\tMeasured/Expected")
	fmt.Println("--------------------------------")
	for rows.Next() {
		var code string
		var expected, measured int64
		if err := rows.Scan(&code, &expected, &measured); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s\t%d/%d\n", code, measured, expected)
	}
	if err := rows.Err(); err != nil {
		log.Fatal(err)
	}
}
