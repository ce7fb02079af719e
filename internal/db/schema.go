package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- NETWORK TABLE
    -- ==========================================================================
    -- Record id is the network hash.
    DEFINE TABLE IF NOT EXISTS network SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS hash ON network TYPE string;
    DEFINE FIELD IF NOT EXISTS game_count ON network TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS training_count ON network TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS training_steps ON network TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS description ON network TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON network TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS network_hash ON network FIELDS hash UNIQUE;

    -- ==========================================================================
    -- MATCH TABLE
    -- ==========================================================================
    -- network2 = NONE means "current champion", resolved on first dispatch.
    DEFINE TABLE IF NOT EXISTS match SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS network1 ON match TYPE string;
    DEFINE FIELD IF NOT EXISTS network2 ON match TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS network1_wins ON match TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS network1_losses ON match TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS game_count ON match TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS number_to_play ON match TYPE int;
    DEFINE FIELD IF NOT EXISTS options ON match TYPE object;
    DEFINE FIELD IF NOT EXISTS options.visits ON match TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS options.playouts ON match TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS options.resignation_percent ON match TYPE float;
    DEFINE FIELD IF NOT EXISTS options.noise ON match TYPE bool;
    DEFINE FIELD IF NOT EXISTS options.randomcnt ON match TYPE int;
    DEFINE FIELD IF NOT EXISTS options_hash ON match TYPE string;
    DEFINE FIELD IF NOT EXISTS is_test ON match TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS created ON match TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS match_pairing ON match FIELDS network1, network2, options_hash;
    DEFINE INDEX IF NOT EXISTS match_created ON match FIELDS created;

    -- ==========================================================================
    -- MATCH GAME TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS match_game SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS match ON match_game TYPE record<match>;
    DEFINE FIELD IF NOT EXISTS client_id ON match_game TYPE string;
    DEFINE FIELD IF NOT EXISTS winnerhash ON match_game TYPE string;
    DEFINE FIELD IF NOT EXISTS loserhash ON match_game TYPE string;
    DEFINE FIELD IF NOT EXISTS winnercolor ON match_game TYPE string;
    DEFINE FIELD IF NOT EXISTS movescount ON match_game TYPE int;
    DEFINE FIELD IF NOT EXISTS score ON match_game TYPE string;
    DEFINE FIELD IF NOT EXISTS options_hash ON match_game TYPE string;
    DEFINE FIELD IF NOT EXISTS verification ON match_game TYPE string;
    DEFINE FIELD IF NOT EXISTS clientversion ON match_game TYPE int;
    DEFINE FIELD IF NOT EXISTS sgf ON match_game TYPE string;
    DEFINE FIELD IF NOT EXISTS sgfhash ON match_game TYPE string;
    DEFINE FIELD IF NOT EXISTS random_seed ON match_game TYPE int;
    DEFINE FIELD IF NOT EXISTS created ON match_game TYPE datetime DEFAULT time::now();

    -- Replay guards: one game per seed per match, one row per game record.
    DEFINE INDEX IF NOT EXISTS match_game_seed ON match_game FIELDS match, random_seed UNIQUE;
    DEFINE INDEX IF NOT EXISTS match_game_sgfhash ON match_game FIELDS sgfhash UNIQUE;

    -- ==========================================================================
    -- GAME TABLE (self-play)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS game SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS client_id ON game TYPE string;
    DEFINE FIELD IF NOT EXISTS networkhash ON game TYPE string;
    DEFINE FIELD IF NOT EXISTS sgf ON game TYPE string;
    DEFINE FIELD IF NOT EXISTS sgfhash ON game TYPE string;
    DEFINE FIELD IF NOT EXISTS options_hash ON game TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS movescount ON game TYPE int;
    DEFINE FIELD IF NOT EXISTS data ON game TYPE string;
    DEFINE FIELD IF NOT EXISTS clientversion ON game TYPE int;
    DEFINE FIELD IF NOT EXISTS winnercolor ON game TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS random_seed ON game TYPE int;
    DEFINE FIELD IF NOT EXISTS created ON game TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS game_sgfhash ON game FIELDS sgfhash UNIQUE;
    DEFINE INDEX IF NOT EXISTS game_created ON game FIELDS created;
`
