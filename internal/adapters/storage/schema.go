package storage

// Esquema de la base del simulador. Solo se aplica automáticamente en
// sqlite; la base postgres compartida se migra por fuera con las mismas
// tablas (BIGSERIAL en lugar de AUTOINCREMENT, BOOLEAN en lugar de los
// enteros 0/1).

const esquema = `
-- Inversionistas habilitados para simular. Los límites en NULL toman el
-- default del simulador.
CREATE TABLE IF NOT EXISTS inversionistas (
    id                       INTEGER PRIMARY KEY AUTOINCREMENT,
    nombre                   TEXT,
    capital_aportado         REAL    NOT NULL DEFAULT 0,
    capital_actual           REAL    NOT NULL DEFAULT 0,
    activo                   INTEGER NOT NULL DEFAULT 1,
    usar_parametros_senal    INTEGER NOT NULL DEFAULT 0,
    apalancamiento           INTEGER,
    apalancamiento_maximo    INTEGER,
    drawdown_max_pct         REAL,
    riesgo_max_pct           REAL,
    tamano_min_operacion     REAL,
    tamano_max_operacion     REAL,
    max_operaciones_diarias  INTEGER,
    max_operaciones_abiertas INTEGER,
    slippage_open_pct        REAL    DEFAULT 0,
    slippage_close_pct       REAL    DEFAULT 0,
    commission_pct           REAL    DEFAULT 0
);

-- Parámetros de la cascada de cierres por estrategia. Una fila que solo trae
-- los porcentajes corre con la cascada completa: activa, flags y
-- max_parciales en NULL toman el default del dominio.
CREATE TABLE IF NOT EXISTS estrategias (
    id                             INTEGER PRIMARY KEY AUTOINCREMENT,
    nombre                         TEXT,
    activa                         INTEGER DEFAULT 1,
    avance_minimo_pct              REAL    NOT NULL DEFAULT 0,
    retroceso_proteccion_pct       REAL    NOT NULL DEFAULT 0,
    retroceso_parcial_pct          REAL    NOT NULL DEFAULT 0,
    liquidacion_parcial_pct        REAL    NOT NULL DEFAULT 0,
    retroceso_sin_avance_pct       REAL    NOT NULL DEFAULT 0,
    max_parciales                  INTEGER DEFAULT 1,
    habilitar_proteccion_ganancias INTEGER DEFAULT 1,
    habilitar_parcial              INTEGER DEFAULT 1,
    habilitar_retroceso_sin_avance INTEGER DEFAULT 1
);

-- Señales emitidas por las estrategias, una fila por (señal, minuto)
CREATE TABLE IF NOT EXISTS senales_generadas (
    id_senal       INTEGER PRIMARY KEY AUTOINCREMENT,
    id_estrategia  INTEGER  NOT NULL,
    ticker         TEXT     NOT NULL,
    tipo_senal     TEXT     NOT NULL,
    timestamp      DATETIME NOT NULL,
    precio_senal   REAL,
    take_profit    REAL,
    stop_loss      REAL,
    apalancamiento INTEGER,
    mult_sl        REAL,
    mult_tp        REAL
);

-- Velas OHLCV de 1 minuto
CREATE TABLE IF NOT EXISTS ohlcv_raw_1m (
    id_vela   INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker    TEXT     NOT NULL,
    timestamp DATETIME NOT NULL,
    open      REAL     NOT NULL,
    high      REAL     NOT NULL,
    low       REAL     NOT NULL,
    close     REAL     NOT NULL,
    volume    REAL     NOT NULL DEFAULT 0
);

-- Una fila por operación simulada; las hijas de cierres parciales apuntan a
-- su padre
CREATE TABLE IF NOT EXISTS operaciones_simuladas (
    id_operacion             INTEGER PRIMARY KEY AUTOINCREMENT,
    id_inversionista         INTEGER NOT NULL,
    id_estrategia            INTEGER,
    id_senal                 INTEGER,
    ticker                   TEXT    NOT NULL,
    tipo_operacion           TEXT    NOT NULL,
    estado                   TEXT    NOT NULL DEFAULT 'abierta',
    entrada                  REAL,
    take_profit              REAL,
    stop_loss                REAL,
    porc_sl                  REAL,
    porc_tp                  REAL,
    cantidad                 REAL,
    apalancamiento           INTEGER,
    capital_riesgo_usado     REAL,
    capital_bloqueado        REAL,
    capital_total_antes      REAL,
    capital_disponible_antes REAL,
    timestamp_apertura       DATETIME,
    timestamp_cierre         DATETIME,
    duracion_operacion       REAL,
    precio_cierre            REAL,
    resultado                REAL,
    motivo_cierre            TEXT,
    precio_maximo            REAL,
    precio_minimo            REAL,
    valor_total_exposicion   REAL,
    cnt_operaciones          INTEGER DEFAULT 0,
    comisiones_acumuladas    REAL    DEFAULT 0,
    es_hija_parcial          INTEGER DEFAULT 0,
    id_operacion_padre       INTEGER,
    mult_sl_asignado         REAL,
    mult_tp_asignado         REAL,
    id_vela_1m_apertura      INTEGER,
    id_vela_1m_cierre        INTEGER,
    pnl_no_realizado         REAL
);

-- Journal de auditoría: un evento por mutación o rechazo, con el contexto
-- variable en detalle como JSON
CREATE TABLE IF NOT EXISTS log_operaciones_simuladas (
    id_log              INTEGER PRIMARY KEY AUTOINCREMENT,
    id_ejecucion        TEXT,
    tipo_evento         TEXT NOT NULL,
    ts_evento           DATETIME,
    id_operacion        INTEGER,
    id_senal            INTEGER,
    id_estrategia       INTEGER,
    id_inversionista    INTEGER,
    id_operacion_padre  INTEGER,
    id_vela_1m          INTEGER,
    ticker              TEXT,
    cantidad            REAL,
    stop_loss           REAL,
    take_profit         REAL,
    precio_maximo       REAL,
    precio_minimo       REAL,
    precio_senal        REAL,
    resultado           REAL,
    precio_cierre       REAL,
    capital_antes       REAL,
    capital_despues     REAL,
    motivo_no_operacion TEXT,
    motivo_cierre       TEXT,
    detalle             TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_ohlcv_ticker_ts ON ohlcv_raw_1m(ticker, timestamp);
CREATE INDEX IF NOT EXISTS idx_senales_ts        ON senales_generadas(timestamp);
CREATE INDEX IF NOT EXISTS idx_ops_inversionista ON operaciones_simuladas(id_inversionista, estado);
CREATE INDEX IF NOT EXISTS idx_log_ejecucion     ON log_operaciones_simuladas(id_ejecucion, tipo_evento);
`
