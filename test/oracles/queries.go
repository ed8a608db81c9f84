package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All returns the invariant checks run against a live engine database. Each
// query selects violating rows; a clean database returns nothing.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_escrow_backed_by_custody",
			SQL: `SELECT a.balance, COALESCE(e.total, 0) AS escrowed
                  FROM accounts a
                  LEFT JOIN (SELECT SUM(amount) AS total FROM escrow) e ON TRUE
                  WHERE a.id = 'engine-custody' AND a.balance <> COALESCE(e.total, 0)`,
		},
		{
			Name: "O2_dispute_ids_sequential",
			SQL: `SELECT c.value, COALESCE(MAX(d.id), 0) AS max_id, COUNT(d.id) AS total
                  FROM counters c LEFT JOIN disputes d ON TRUE
                  WHERE c.name = 'dispute_id'
                  GROUP BY c.value
                  HAVING c.value <> COALESCE(MAX(d.id), 0) OR c.value <> COUNT(d.id)`,
		},
		{
			Name: "O3_evidence_seq_dense",
			SQL: `SELECT dispute_id FROM evidence
                  GROUP BY dispute_id
                  HAVING MAX(seq) <> COUNT(*) OR MIN(seq) <> 1`,
		},
		{
			Name: "O4_evidence_count_matches",
			SQL: `SELECT d.id, d.evidence_count, COALESCE(e.total, 0) AS actual
                  FROM disputes d
                  LEFT JOIN (SELECT dispute_id, COUNT(*) AS total FROM evidence GROUP BY dispute_id) e
                    ON e.dispute_id = d.id
                  WHERE d.evidence_count <> COALESCE(e.total, 0)`,
		},
		{
			Name: "O5_escrow_held_until_resolution",
			SQL: `SELECT d.id, d.status::text, es.dispute_id IS NOT NULL AS has_escrow
                  FROM disputes d
                  LEFT JOIN escrow es ON es.dispute_id = d.id
                  WHERE (d.status IN ('open','evidence') AND es.dispute_id IS NULL)
                     OR (d.status = 'resolved' AND es.dispute_id IS NOT NULL)`,
		},
		{
			Name: "O6_resolution_write_once",
			SQL: `SELECT id FROM disputes
                  WHERE (status = 'resolved' AND (outcome IS NULL
                         OR confidence IS NULL OR confidence < 0 OR confidence > 100
                         OR resolved_height IS NULL
                         OR appeal_deadline IS DISTINCT FROM resolved_height + 144))
                     OR (status IN ('open','evidence') AND (outcome IS NOT NULL
                         OR confidence IS NOT NULL OR resolved_height IS NOT NULL))`,
		},
		{
			Name: "O7_evidence_only_in_phase",
			SQL: `SELECT e.dispute_id, e.seq FROM evidence e
                  JOIN disputes d ON d.id = e.dispute_id
                  WHERE d.status = 'open'`,
		},
		{
			Name: "O8_event_seq_monotonic",
			SQL: `WITH seqs AS (
                      SELECT dispute_id, seq,
                             LAG(seq) OVER (PARTITION BY dispute_id ORDER BY seq) AS prev
                      FROM dispute_events)
                  SELECT * FROM seqs WHERE prev IS NOT NULL AND seq <= prev`,
		},
		{
			Name: "O9_no_negative_balances",
			SQL:  `SELECT id, balance FROM accounts WHERE balance < 0`,
		},
		{
			Name: "O10_outbox_not_stuck",
			SQL: `SELECT id::text FROM outbox
                  WHERE status = 'pending' AND NOW() - created_at > interval '5 minutes'`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row
// text) or an empty name when everything holds.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
