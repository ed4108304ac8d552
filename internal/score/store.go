package score

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"git.lost.host/meutraa/rubi/internal/chart"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ReplayInput is one recorded edge, in logical song milliseconds.
type ReplayInput struct {
	Lane    int
	Ms      float64
	Pressed bool
}

// Replay is one saved playthrough of one chart.
type Replay struct {
	ID       string
	Sum      string
	Rate     float64
	Accuracy float64
	Score    float64
	Inputs   []ReplayInput
}

type laneInputs struct {
	Lane  int
	Times []float64
	Kinds []bool
}

func compactInputs(inputs []ReplayInput) []laneInputs {
	lanes := 0
	for _, in := range inputs {
		if in.Lane >= lanes {
			lanes = in.Lane + 1
		}
	}
	compact := make([]laneInputs, lanes)
	for i := range compact {
		compact[i].Lane = i
	}
	for _, in := range inputs {
		compact[in.Lane].Times = append(compact[in.Lane].Times, in.Ms)
		compact[in.Lane].Kinds = append(compact[in.Lane].Kinds, in.Pressed)
	}
	return compact
}

func uncompactInputs(compact []laneInputs) []ReplayInput {
	inputs := []ReplayInput{}
	for _, lane := range compact {
		for i, t := range lane.Times {
			inputs = append(inputs, ReplayInput{Lane: lane.Lane, Ms: t, Pressed: lane.Kinds[i]})
		}
	}
	return inputs
}

// Store persists replays in a local sqlite database.
type Store struct {
	db *sql.DB
}

func (s *Store) Init(path string) error {
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return err
	}

	initStatement := `
	create table if not exists replays
	  (
		  id text not null primary key,
		  sum text,
		  rate real,
		  accuracy real,
		  score real,
		  inputs bytearray
	  );
	`
	if _, err = db.Exec(initStatement); nil != err {
		return err
	}

	s.db = db
	return nil
}

func (s *Store) Deinit() {
	if nil != s.db {
		s.db.Close()
	}
}

// HashChart identifies a bar line by its note content, so replays
// survive metadata edits.
func HashChart(c *chart.ChartData) string {
	var b strings.Builder
	for _, n := range c.Notes {
		fmt.Fprintf(&b, "%d:%v:%v;", n.Lane, n.MeasureTime, n.MeasureLength)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *Store) Save(c *chart.ChartData, r *Replay) {
	data, err := json.Marshal(compactInputs(r.Inputs))
	if nil != err {
		log.Println("unable to marshal replay inputs:", err)
		return
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err = s.db.Exec(
		"insert into replays(id, sum, rate, accuracy, score, inputs) values(?, ?, ?, ?, ?, ?)",
		r.ID, HashChart(c), r.Rate, r.Accuracy, r.Score, data)
	if nil != err {
		log.Println("unable to save replay:", err)
	}
}

func (s *Store) Load(c *chart.ChartData) []Replay {
	replays := []Replay{}
	rows, err := s.db.Query(
		"select id, sum, rate, accuracy, score, inputs from replays where sum = ?",
		HashChart(c))
	if nil != err && err != sql.ErrNoRows {
		log.Println("unable to load replays:", err)
		return replays
	}
	defer rows.Close()
	for rows.Next() {
		var r Replay
		var data []byte
		if err := rows.Scan(&r.ID, &r.Sum, &r.Rate, &r.Accuracy, &r.Score, &data); nil != err {
			log.Println("unable to scan replay row:", err)
			continue
		}
		var compact []laneInputs
		if err := json.Unmarshal(data, &compact); nil != err {
			log.Println("unable to unmarshal replay inputs")
			continue
		}
		r.Inputs = uncompactInputs(compact)
		replays = append(replays, r)
	}
	return replays
}
