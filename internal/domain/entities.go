package domain

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Church is a tenant: one church organization and the unit of data isolation
type Church struct {
	ID          int64  `json:"id"`
	Nome        string `json:"nome"`
	Slug        string `json:"slug"`
	Endereco    string `json:"endereco,omitempty"`
	Cidade      string `json:"cidade,omitempty"`
	Estado      string `json:"estado,omitempty"`
	Cep         string `json:"cep,omitempty"`
	CorPrimaria string `json:"corPrimaria,omitempty"`
}

type ChurchDraft struct {
	Nome        string `json:"nome" validate:"required,min=3,max=120"`
	Slug        string `json:"slug" validate:"required,slug,max=80"`
	Endereco    string `json:"endereco,omitempty" validate:"omitempty,max=200"`
	Cidade      string `json:"cidade,omitempty" validate:"omitempty,max=80"`
	Estado      string `json:"estado,omitempty" validate:"omitempty,len=2,alpha"`
	Cep         string `json:"cep,omitempty" validate:"omitempty,cep"`
	CorPrimaria string `json:"corPrimaria,omitempty" validate:"omitempty,hexcolor"`
}

func (d *ChurchDraft) Normalize() {
	d.Nome = strings.TrimSpace(d.Nome)
	d.Slug = strings.TrimSpace(d.Slug)
	d.Endereco = strings.TrimSpace(d.Endereco)
	d.Cidade = strings.TrimSpace(d.Cidade)
	d.Estado = strings.ToUpper(strings.TrimSpace(d.Estado))
	d.Cep = OnlyDigits(d.Cep)
	d.CorPrimaria = strings.TrimSpace(d.CorPrimaria)
}

// MemberStatus is the ecclesiastical standing of a member
type MemberStatus string

const (
	MemberActive   MemberStatus = "ATIVO"
	MemberInactive MemberStatus = "INATIVO"
	MemberVisitor  MemberStatus = "VISITANTE"
)

type Member struct {
	ID             int64        `json:"id"`
	Nome           string       `json:"nome"`
	Email          string       `json:"email,omitempty"`
	Telefone       string       `json:"telefone,omitempty"`
	DataNascimento Date         `json:"dataNascimento"`
	Endereco       string       `json:"endereco,omitempty"`
	Cidade         string       `json:"cidade,omitempty"`
	Estado         string       `json:"estado,omitempty"`
	Cep            string       `json:"cep,omitempty"`
	Cargo          string       `json:"cargo,omitempty"`
	Status         MemberStatus `json:"status"`
	DataMembresia  Date         `json:"dataMembresia"`
	DataBatismo    Date         `json:"dataBatismo"`
	IgrejaID       int64        `json:"igrejaId,omitempty"`
}

// MemberDraft is the create/update payload for a member. Baptism and
// membership dates may not precede the birth date.
type MemberDraft struct {
	Nome           string       `json:"nome" validate:"required,min=3,max=120"`
	Email          string       `json:"email,omitempty" validate:"omitempty,email"`
	Telefone       string       `json:"telefone,omitempty" validate:"omitempty,phone"`
	DataNascimento Date         `json:"dataNascimento" validate:"required,notfuture"`
	Endereco       string       `json:"endereco,omitempty" validate:"omitempty,max=200"`
	Cidade         string       `json:"cidade,omitempty" validate:"omitempty,max=80"`
	Estado         string       `json:"estado,omitempty" validate:"omitempty,len=2,alpha"`
	Cep            string       `json:"cep,omitempty" validate:"omitempty,cep"`
	Cargo          string       `json:"cargo,omitempty" validate:"omitempty,max=60"`
	Status         MemberStatus `json:"status" validate:"required,oneof=ATIVO INATIVO VISITANTE"`
	DataMembresia  Date         `json:"dataMembresia" validate:"omitempty,notfuture"`
	DataBatismo    Date         `json:"dataBatismo" validate:"omitempty,notfuture"`
}

func (d *MemberDraft) Normalize() {
	d.Nome = strings.TrimSpace(d.Nome)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Telefone = OnlyDigits(d.Telefone)
	d.Endereco = strings.TrimSpace(d.Endereco)
	d.Cidade = strings.TrimSpace(d.Cidade)
	d.Estado = strings.ToUpper(strings.TrimSpace(d.Estado))
	d.Cep = OnlyDigits(d.Cep)
	d.Cargo = strings.TrimSpace(d.Cargo)
	if d.Status == "" {
		d.Status = MemberActive
	}
}

// TransactionType is the sign of a ledger entry
type TransactionType string

const (
	Income  TransactionType = "ENTRADA"
	Expense TransactionType = "SAIDA"
)

// TransactionCategory tags a ledger entry
type TransactionCategory string

const (
	CategoryTithe       TransactionCategory = "DIZIMO"
	CategoryOffering    TransactionCategory = "OFERTA"
	CategoryRent        TransactionCategory = "ALUGUEL"
	CategoryUtilities   TransactionCategory = "UTILIDADES"
	CategorySalary      TransactionCategory = "SALARIO"
	CategoryMaintenance TransactionCategory = "MANUTENCAO"
	CategoryOther       TransactionCategory = "OUTROS"
)

type Transaction struct {
	ID        int64               `json:"id"`
	Descricao string              `json:"descricao"`
	Tipo      TransactionType     `json:"tipo"`
	Categoria TransactionCategory `json:"categoria"`
	Valor     decimal.Decimal     `json:"valor"`
	Data      Date                `json:"data"`
	IgrejaID  int64               `json:"igrejaId,omitempty"`
}

// Signed returns the amount with expenses negated
func (t Transaction) Signed() decimal.Decimal {
	if t.Tipo == Expense {
		return t.Valor.Neg()
	}
	return t.Valor
}

type TransactionDraft struct {
	Descricao string              `json:"descricao" validate:"required,min=3,max=200"`
	Tipo      TransactionType     `json:"tipo" validate:"required,oneof=ENTRADA SAIDA"`
	Categoria TransactionCategory `json:"categoria" validate:"required,oneof=DIZIMO OFERTA ALUGUEL UTILIDADES SALARIO MANUTENCAO OUTROS"`
	Valor     decimal.Decimal     `json:"valor" validate:"gt=0"`
	Data      Date                `json:"data" validate:"required"`
}

func (d *TransactionDraft) Normalize() {
	d.Descricao = strings.TrimSpace(d.Descricao)
	d.Valor = d.Valor.Round(2)
}

type Ministry struct {
	ID        int64  `json:"id"`
	Nome      string `json:"nome"`
	Descricao string `json:"descricao,omitempty"`
	Lider     string `json:"lider,omitempty"`
	IgrejaID  int64  `json:"igrejaId,omitempty"`
}

type MinistryDraft struct {
	Nome      string `json:"nome" validate:"required,min=3,max=120"`
	Descricao string `json:"descricao,omitempty" validate:"omitempty,max=500"`
	Lider     string `json:"lider,omitempty" validate:"omitempty,max=120"`
}

func (d *MinistryDraft) Normalize() {
	d.Nome = strings.TrimSpace(d.Nome)
	d.Descricao = strings.TrimSpace(d.Descricao)
	d.Lider = strings.TrimSpace(d.Lider)
}

// Scale is a service-volunteer roster for one date
type Scale struct {
	ID          int64    `json:"id"`
	Titulo      string   `json:"titulo"`
	Data        Date     `json:"data"`
	Ministerio  string   `json:"ministerio,omitempty"`
	Voluntarios []string `json:"voluntarios"`
	Observacoes string   `json:"observacoes,omitempty"`
	IgrejaID    int64    `json:"igrejaId,omitempty"`
}

type ScaleDraft struct {
	Titulo      string   `json:"titulo" validate:"required,min=3,max=120"`
	Data        Date     `json:"data" validate:"required"`
	Ministerio  string   `json:"ministerio,omitempty" validate:"omitempty,max=120"`
	Voluntarios []string `json:"voluntarios" validate:"min=1,dive,required,max=120"`
	Observacoes string   `json:"observacoes,omitempty" validate:"omitempty,max=500"`
}

func (d *ScaleDraft) Normalize() {
	d.Titulo = strings.TrimSpace(d.Titulo)
	d.Ministerio = strings.TrimSpace(d.Ministerio)
	d.Observacoes = strings.TrimSpace(d.Observacoes)
	for i, v := range d.Voluntarios {
		d.Voluntarios[i] = strings.TrimSpace(v)
	}
}

type SmallGroup struct {
	ID        int64  `json:"id"`
	Nome      string `json:"nome"`
	Lider     string `json:"lider,omitempty"`
	Endereco  string `json:"endereco,omitempty"`
	DiaSemana string `json:"diaSemana,omitempty"`
	Horario   string `json:"horario,omitempty"`
	IgrejaID  int64  `json:"igrejaId,omitempty"`
}

type SmallGroupDraft struct {
	Nome      string `json:"nome" validate:"required,min=3,max=120"`
	Lider     string `json:"lider,omitempty" validate:"omitempty,max=120"`
	Endereco  string `json:"endereco,omitempty" validate:"omitempty,max=200"`
	DiaSemana string `json:"diaSemana,omitempty" validate:"omitempty,oneof=DOMINGO SEGUNDA TERCA QUARTA QUINTA SEXTA SABADO"`
	Horario   string `json:"horario,omitempty" validate:"omitempty,datetime=15:04"`
}

func (d *SmallGroupDraft) Normalize() {
	d.Nome = strings.TrimSpace(d.Nome)
	d.Lider = strings.TrimSpace(d.Lider)
	d.Endereco = strings.TrimSpace(d.Endereco)
	d.DiaSemana = strings.ToUpper(strings.TrimSpace(d.DiaSemana))
	d.Horario = strings.TrimSpace(d.Horario)
}

// PrayerRequest carries a public "prayed" tally that any viewer may bump
type PrayerRequest struct {
	ID          int64     `json:"id"`
	Nome        string    `json:"nome,omitempty"`
	Pedido      string    `json:"pedido"`
	Anonimo     bool      `json:"anonimo"`
	VezesOrado  int64     `json:"vezesOrado"`
	DataCriacao Timestamp `json:"dataCriacao"`
	IgrejaID    int64     `json:"igrejaId,omitempty"`
}

// DisplayName hides the author of anonymous requests
func (p PrayerRequest) DisplayName() string {
	if p.Anonimo || p.Nome == "" {
		return "Anônimo"
	}
	return p.Nome
}

type PrayerRequestDraft struct {
	Nome    string `json:"nome,omitempty" validate:"required_unless=Anonimo true,max=120"`
	Pedido  string `json:"pedido" validate:"required,min=3,max=1000"`
	Anonimo bool   `json:"anonimo"`
}

func (d *PrayerRequestDraft) Normalize() {
	d.Nome = strings.TrimSpace(d.Nome)
	d.Pedido = strings.TrimSpace(d.Pedido)
	if d.Anonimo {
		d.Nome = ""
	}
}

type Visitor struct {
	ID           int64  `json:"id"`
	Nome         string `json:"nome"`
	Telefone     string `json:"telefone,omitempty"`
	Email        string `json:"email,omitempty"`
	DataVisita   Date   `json:"dataVisita"`
	ComoConheceu string `json:"comoConheceu,omitempty"`
	Observacoes  string `json:"observacoes,omitempty"`
	IgrejaID     int64  `json:"igrejaId,omitempty"`
}

type VisitorDraft struct {
	Nome         string `json:"nome" validate:"required,min=3,max=120"`
	Telefone     string `json:"telefone,omitempty" validate:"omitempty,phone"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	DataVisita   Date   `json:"dataVisita" validate:"required,notfuture"`
	ComoConheceu string `json:"comoConheceu,omitempty" validate:"omitempty,max=200"`
	Observacoes  string `json:"observacoes,omitempty" validate:"omitempty,max=500"`
}

func (d *VisitorDraft) Normalize() {
	d.Nome = strings.TrimSpace(d.Nome)
	d.Telefone = OnlyDigits(d.Telefone)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.ComoConheceu = strings.TrimSpace(d.ComoConheceu)
	d.Observacoes = strings.TrimSpace(d.Observacoes)
}

// KidsCheckIn is one child's stay in the kids area. DataSaida stays nil
// while the child is on the active roster.
type KidsCheckIn struct {
	ID                  int64      `json:"id"`
	NomeCrianca         string     `json:"nomeCrianca"`
	NomeResponsavel     string     `json:"nomeResponsavel"`
	TelefoneResponsavel string     `json:"telefoneResponsavel"`
	Alergias            string     `json:"alergias,omitempty"`
	Observacoes         string     `json:"observacoes,omitempty"`
	CodigoSeguranca     string     `json:"codigoSeguranca"`
	DataEntrada         Timestamp  `json:"dataEntrada"`
	DataSaida           *Timestamp `json:"dataSaida,omitempty"`
	IgrejaID            int64      `json:"igrejaId,omitempty"`
}

// Active reports whether the child has not been checked out
func (k KidsCheckIn) Active() bool {
	return k.DataSaida == nil || k.DataSaida.IsZero()
}

type KidsCheckInDraft struct {
	NomeCrianca         string `json:"nomeCrianca" validate:"required,min=3,max=120"`
	NomeResponsavel     string `json:"nomeResponsavel" validate:"required,min=3,max=120"`
	TelefoneResponsavel string `json:"telefoneResponsavel" validate:"required,phone"`
	Alergias            string `json:"alergias,omitempty" validate:"omitempty,max=500"`
	Observacoes         string `json:"observacoes,omitempty" validate:"omitempty,max=500"`
}

func (d *KidsCheckInDraft) Normalize() {
	d.NomeCrianca = strings.TrimSpace(d.NomeCrianca)
	d.NomeResponsavel = strings.TrimSpace(d.NomeResponsavel)
	d.TelefoneResponsavel = OnlyDigits(d.TelefoneResponsavel)
	d.Alergias = strings.TrimSpace(d.Alergias)
	d.Observacoes = strings.TrimSpace(d.Observacoes)
}

// OnlyDigits strips everything but ASCII digits
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
