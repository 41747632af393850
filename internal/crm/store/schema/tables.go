package schema

// Names are kept from the deployed databases; renaming them would orphan
// existing data.

var Clients = Table{
	Name: "clients",
	Columns: []Column{
		{Name: "id", Type: Serial},
		{Name: "nom", Type: Varchar, Size: 255, NotNull: true},
		{Name: "prenom", Type: Varchar, Size: 255, NotNull: true},
		{Name: "telephone", Type: Varchar, Size: 255},
		{Name: "email", Type: Varchar, Size: 255, NotNull: true, Unique: true},
		{Name: "siret", Type: Varchar, Size: 255},
		{Name: "tva_intracommunautaire", Type: Varchar, Size: 255},
		{Name: "service_demande", Type: Text, NotNull: true},
		{Name: "type", Type: Varchar, Size: 50, NotNull: true, Default: "'prospect'"},
		{Name: "created_by", Type: Varchar, Size: 255, Default: "'admin'"},
		{Name: "date_creation", Type: Timestamp, Default: "CURRENT_TIMESTAMP"},
		{Name: "date_modification", Type: Timestamp, Default: "CURRENT_TIMESTAMP"},
	},
}

var Exchanges = Table{
	Name: "echanges",
	Columns: []Column{
		{Name: "id", Type: Serial},
		{Name: "client_id", Type: Integer, NotNull: true},
		{Name: "type", Type: Varchar, Size: 255, NotNull: true},
		{Name: "sujet", Type: Varchar, Size: 255},
		{Name: "contenu", Type: Text, NotNull: true},
		{Name: "date_creation", Type: Timestamp, Default: "CURRENT_TIMESTAMP"},
	},
	ForeignKeys: []ForeignKey{
		{Column: "client_id", RefTable: "clients", RefColumn: "id", OnDelete: "CASCADE"},
	},
}

var Admins = Table{
	Name: "admins",
	Columns: []Column{
		{Name: "id", Type: Serial},
		{Name: "username", Type: Varchar, Size: 255, NotNull: true, Unique: true},
		{Name: "password_hash", Type: Varchar, Size: 255, NotNull: true},
		{Name: "email", Type: Varchar, Size: 255},
		{Name: "date_creation", Type: Timestamp, Default: "CURRENT_TIMESTAMP"},
		{Name: "derniere_connexion", Type: Timestamp},
	},
}

// Tables lists the shared tables in creation order (parents first).
var Tables = []Table{Clients, Exchanges, Admins}

// addedColumn is a column introduced after the first deployment. Older
// databases get it through ALTER TABLE, then existing rows are backfilled.
type addedColumn struct {
	table    string
	column   string
	backfill string
}

var addedColumns = []addedColumn{
	{table: "clients", column: "type", backfill: "prospect"},
	{table: "clients", column: "created_by", backfill: "admin"},
}
