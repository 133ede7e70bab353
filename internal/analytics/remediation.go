package analytics

import "strings"

// Remediation describes what a merchant can do about a decline code.
type Remediation struct {
	Code      string
	Retryable bool
	Short     string
	Long      string
	Known     bool
}

var remediations = map[string]Remediation{
	"ABECS-51": {
		Retryable: true,
		Short:     "Saldo insuficiente",
		Long:      "Tente novamente em outro dia ou ofereça parcelamento e outro meio de pagamento.",
	},
	"ABECS-57": {
		Short: "Cartão vencido",
		Long:  "Solicite ao cliente um cartão válido. Não retente com os mesmos dados.",
	},
	"ABECS-59": {
		Short: "Suspeita de fraude",
		Long:  "Ative 3D Secure 2.0 para transferir a responsabilidade ao emissor e revise as regras antifraude.",
	},
	"ABECS-82": {
		Short: "Dados do cartão inválidos",
		Long:  "Valide o cartão com ZeroAuth antes da cobrança e revise o formulário de checkout.",
	},
	"ABECS-83": {
		Short: "Senha inválida",
		Long:  "Oriente o cliente a confirmar a senha com o emissor antes de tentar novamente.",
	},
	"ABECS-46": {
		Short: "Conta encerrada",
		Long:  "A conta do cartão foi encerrada. Solicite outro meio de pagamento.",
	},
	"ABECS-91": {
		Retryable: true,
		Short:     "Emissor indisponível",
		Long:      "Falha temporária de comunicação com o banco. Retente após alguns minutos.",
	},
	"GEN-002": {
		Retryable: true,
		Short:     "Erro de sistema",
		Long:      "Erro transitório no processamento. Retente com backoff e acompanhe a disponibilidade do adquirente.",
	},
}

// noRecommendation is returned for codes outside the table.
var noRecommendation = Remediation{
	Short: "Sem recomendação",
	Long:  "Nenhuma recomendação cadastrada para este código. Consulte a documentação ABECS.",
}

// LookupRemediation resolves a decline code; unknown codes get the fallback entry.
func LookupRemediation(code string) Remediation {
	key := strings.ToUpper(strings.TrimSpace(code))
	if r, ok := remediations[key]; ok {
		r.Code = key
		r.Known = true
		return r
	}
	out := noRecommendation
	out.Code = key
	return out
}
