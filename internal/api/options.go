package api

import (
	"revizor/internal/admincfg"
	"revizor/internal/model"
)

// AdminOptions — эффективные настройки admin-представлений модели.
// Пустые значения в каталоге заполняются умолчаниями ниже.
type AdminOptions struct {
	ListDisplay  []string `json:"list_display"`
	SearchFields []string `json:"search_fields"`
	ListFilter   []string `json:"list_filter"`
	Fields       []string `json:"fields"`        // поля форм add/change
	RawIDFields  []string `json:"raw_id_fields"` // связи показываем сырыми значениями
	ReadOnly     bool     `json:"read_only"`
}

// maxDefaultListDisplay — сколько колонок показывает список без настройки.
const maxDefaultListDisplay = 4

func buildOptions(m *model.Model, cfg admincfg.ModelConfig) AdminOptions {
	o := AdminOptions{
		ListDisplay:  cfg.ListDisplay,
		SearchFields: cfg.SearchFields,
		ListFilter:   cfg.ListFilter,
		Fields:       cfg.Fields,
		ReadOnly:     cfg.ReadOnly,
	}

	concrete := m.ConcreteFields()

	// список: первые четыре реальные колонки; для связи показываем
	// её db-колонку, а не имя поля
	if len(o.ListDisplay) == 0 {
		n := len(concrete)
		if n > maxDefaultListDisplay {
			n = maxDefaultListDisplay
		}
		for _, f := range concrete[:n] {
			if f.IsRelation() {
				o.ListDisplay = append(o.ListDisplay, f.Column)
			} else {
				o.ListDisplay = append(o.ListDisplay, f.Name)
			}
		}
	}

	// поиск по умолчанию — точное совпадение первичного ключа
	if len(o.SearchFields) == 0 {
		o.SearchFields = []string{"=pk"}
	}

	// фильтры по умолчанию — поля с choices и булевы
	if len(o.ListFilter) == 0 {
		for _, f := range concrete {
			if len(f.Choices) > 0 || f.Kind == model.KindBool {
				o.ListFilter = append(o.ListFilter, f.Name)
			}
		}
	}

	// формы: все реальные поля (составной id — вычисляемый, в формы не идёт)
	if len(o.Fields) == 0 {
		for _, f := range concrete {
			o.Fields = append(o.Fields, f.Name)
		}
	}

	for _, f := range concrete {
		if f.IsRelation() {
			o.RawIDFields = append(o.RawIDFields, f.Name)
		}
	}
	return o
}

// changeFields — поля формы изменения: всё из Fields минус первичный ключ.
// PK неизменяем (смена ключа означала бы новую запись), но на форме
// создания он присутствует — авто-значений у отражённых таблиц нет.
func changeFields(m *model.Model, o AdminOptions) []string {
	primary := map[string]struct{}{}
	pk := m.PK()
	if pk != nil {
		if pk.Kind == model.KindCompositeKey {
			for _, col := range pk.KeyColumns {
				if f := m.FieldByColumn(col); f != nil {
					primary[f.Name] = struct{}{}
				}
			}
		} else {
			primary[pk.Name] = struct{}{}
		}
	}

	out := make([]string, 0, len(o.Fields))
	for _, name := range o.Fields {
		if _, isPK := primary[name]; !isPK {
			out = append(out, name)
		}
	}
	return out
}
