package staticipdb

import (
	"fmt"
	"net/netip"

	"github.com/hashicorp/go-memdb"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/armadaproject/placement/internal/common/placementerrors"
	"github.com/armadaproject/placement/internal/placement/model"
)

const (
	staticIpsTable = "staticips"
	idIndex        = "id"    // index for looking up an ip on a given network
	ipIndex        = "ip"    // index for looking up an ip across all networks
	orderIndex     = "order" // index for iterating over the unclaimed ips of a network in the order they should be handed out
)

// StaticIpWithAzs is one static IP of a job network together with the availability zones allowed to host it.
type StaticIpWithAzs struct {
	// Name of the job network declaring the ip.
	Network string
	Ip      netip.Addr
	// String form of Ip. Indexed.
	IpKey string
	// Availability zones of the subnet declaring the ip.
	// The first entry is the zone an instance taking this ip is placed in.
	AzNames []string
	// True once an instance holds the ip.
	Claimed bool
	// Position of the ip in its network's queue. Smaller values are handed out first.
	Order uint64
}

// AllowsAz returns true if an instance in the given zone may use this ip.
// The empty zone name only matches ips declared without availability zones.
func (s *StaticIpWithAzs) AllowsAz(azName string) bool {
	if azName == "" {
		return len(s.AzNames) == 0
	}
	return slices.Contains(s.AzNames, azName)
}

// FirstAzName returns the zone an instance taking this ip should be placed in, or "" if the ip has no zones.
func (s *StaticIpWithAzs) FirstAzName() string {
	if len(s.AzNames) == 0 {
		return ""
	}
	return s.AzNames[0]
}

func (s *StaticIpWithAzs) copy() *StaticIpWithAzs {
	return &StaticIpWithAzs{
		Network: s.Network,
		Ip:      s.Ip,
		IpKey:   s.IpKey,
		AzNames: slices.Clone(s.AzNames),
		Claimed: s.Claimed,
		Order:   s.Order,
	}
}

// NetworkStats summarises the static ip supply of a network.
type NetworkStats struct {
	Total   int
	Claimed int
}

// StaticIpDb indexes the static IPs of the networks of one job and tracks which of them are claimed.
// A StaticIpDb must be created per placement run; it is not safe for concurrent writers.
//
// StaticIpDb is implemented on top of https://github.com/hashicorp/go-memdb.
// Rows stored in the db are never modified in-place; updates insert a modified copy.
type StaticIpDb struct {
	db      *memdb.MemDB
	jobName string
	// Names of the static networks, in the order the job declares them.
	networks []string
}

// NewStaticIpDb indexes the static IPs of the given job networks. Dynamic networks are ignored.
// Fails if a static network declares no IPs, if an IP belongs to no subnet of its deployment network,
// or if an IP is declared twice on the same network.
func NewStaticIpDb(jobNetworks []*model.JobNetwork, jobName string) (*StaticIpDb, error) {
	db, err := memdb.NewMemDB(staticIpDbSchema())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	staticIpDb := &StaticIpDb{
		db:      db,
		jobName: jobName,
	}
	txn := db.Txn(true)
	defer txn.Abort()
	declared := make(map[string]bool, len(jobNetworks))
	for _, jobNetwork := range jobNetworks {
		if declared[jobNetwork.Name] {
			return nil, errors.WithStack(&placementerrors.ErrConfiguration{
				Job:     jobName,
				Message: fmt.Sprintf("network %q is declared more than once", jobNetwork.Name),
			})
		}
		declared[jobNetwork.Name] = true
		if !jobNetwork.IsStatic() {
			continue
		}
		if len(jobNetwork.StaticIps) == 0 {
			return nil, errors.WithStack(&placementerrors.ErrConfiguration{
				Job:     jobName,
				Message: fmt.Sprintf("static network %q declares no static ips", jobNetwork.Name),
			})
		}
		staticIpDb.networks = append(staticIpDb.networks, jobNetwork.Name)
		for i, ip := range jobNetwork.StaticIps {
			subnet := jobNetwork.DeploymentNetwork.SubnetForStaticIp(ip)
			if subnet == nil {
				return nil, errors.WithStack(&placementerrors.ErrConfiguration{
					Job:     jobName,
					Message: fmt.Sprintf("static ip %s on network %q belongs to no subnet", ip, jobNetwork.Name),
				})
			}
			if existing, err := txn.First(staticIpsTable, idIndex, jobNetwork.Name, ip.String()); err != nil {
				return nil, errors.WithStack(err)
			} else if existing != nil {
				return nil, errors.WithStack(&placementerrors.ErrConfiguration{
					Job:     jobName,
					Message: fmt.Sprintf("static ip %s is declared more than once on network %q", ip, jobNetwork.Name),
				})
			}
			row := &StaticIpWithAzs{
				Network: jobNetwork.Name,
				Ip:      ip,
				IpKey:   ip.String(),
				AzNames: slices.Clone(subnet.AvailabilityZoneNames),
				Order:   uint64(i),
			}
			if err := txn.Insert(staticIpsTable, row); err != nil {
				return nil, errors.WithStack(err)
			}
		}
	}
	txn.Commit()
	return staticIpDb, nil
}

// ValidateAzsAreDeclaredInJobAndSubnets checks that every zone a static IP may be placed in is one of the job's zones.
func (d *StaticIpDb) ValidateAzsAreDeclaredInJobAndSubnets(desiredAzs []*model.AvailabilityZone) error {
	desiredAzNames := azNames(desiredAzs)
	rows, err := d.allRows()
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, row := range rows {
		for _, azName := range row.AzNames {
			if slices.Contains(desiredAzNames, azName) {
				continue
			}
			var message string
			if len(desiredAzNames) == 0 {
				message = fmt.Sprintf(
					"subnet of static ip %s on network %q declares availability zone %q and the job declares none",
					row.Ip, row.Network, azName,
				)
			} else {
				message = fmt.Sprintf(
					"static ip %s on network %q is in availability zone %q which is not declared by the job",
					row.Ip, row.Network, azName,
				)
			}
			result = multierror.Append(result, &placementerrors.ErrConfiguration{Job: d.jobName, Message: message})
		}
	}
	return errors.WithStack(result.ErrorOrNil())
}

// ValidateIpsAreInDesiredAzs checks that every static IP may be placed in at least one of the job's zones.
// Jobs without zones are not checked.
func (d *StaticIpDb) ValidateIpsAreInDesiredAzs(desiredAzs []*model.AvailabilityZone) error {
	desiredAzNames := azNames(desiredAzs)
	if len(desiredAzNames) == 0 {
		return nil
	}
	rows, err := d.allRows()
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, row := range rows {
		usable := false
		for _, azName := range row.AzNames {
			if slices.Contains(desiredAzNames, azName) {
				usable = true
				break
			}
		}
		if !usable {
			result = multierror.Append(result, &placementerrors.ErrConfiguration{
				Job: d.jobName,
				Message: fmt.Sprintf(
					"static ip %s on network %q does not belong to any of the job's availability zones",
					row.Ip, row.Network,
				),
			})
		}
	}
	return errors.WithStack(result.ErrorOrNil())
}

// Claim marks ip as in use on every network declaring it.
// Each ip should be claimed at most once per run.
func (d *StaticIpDb) Claim(ip netip.Addr) error {
	txn := d.db.Txn(true)
	defer txn.Abort()
	it, err := txn.Get(staticIpsTable, ipIndex, ip.String())
	if err != nil {
		return errors.WithStack(err)
	}
	var claimed []*StaticIpWithAzs
	for obj := it.Next(); obj != nil; obj = it.Next() {
		row := obj.(*StaticIpWithAzs).copy()
		row.Claimed = true
		claimed = append(claimed, row)
	}
	if len(claimed) == 0 {
		return errors.WithStack(&placementerrors.ErrLookup{Ip: ip.String()})
	}
	for _, row := range claimed {
		if err := txn.Insert(staticIpsTable, row); err != nil {
			return errors.WithStack(err)
		}
	}
	txn.Commit()
	return nil
}

// FindByNetworkAndIp returns the row for ip on the given network.
// The returned value is a copy; modifying it does not affect the db.
func (d *StaticIpDb) FindByNetworkAndIp(jobNetwork *model.JobNetwork, ip netip.Addr) (*StaticIpWithAzs, error) {
	txn := d.db.Txn(false)
	obj, err := txn.First(staticIpsTable, idIndex, jobNetwork.Name, ip.String())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if obj == nil {
		return nil, errors.WithStack(&placementerrors.ErrLookup{Network: jobNetwork.Name, Ip: ip.String()})
	}
	return obj.(*StaticIpWithAzs).copy(), nil
}

// DistributeEvenlyPerZone reorders the unclaimed ips of every network so that taking them one after the other
// cycles through availability zones rather than exhausting one zone before moving to the next.
// Each ip is assigned to the least loaded of its zones, which becomes its first zone.
func (d *StaticIpDb) DistributeEvenlyPerZone() error {
	txn := d.db.Txn(true)
	defer txn.Abort()
	for _, network := range d.networks {
		rows, err := d.unclaimedRows(txn, network)
		if err != nil {
			return err
		}
		numIpsByAz := make(map[string]int)
		rowsByAz := make(map[string][]*StaticIpWithAzs)
		var azOrder []string
		for _, row := range rows {
			azName := leastLoadedAz(row.AzNames, numIpsByAz)
			numIpsByAz[azName]++
			if _, ok := rowsByAz[azName]; !ok {
				azOrder = append(azOrder, azName)
			}
			row = row.copy()
			row.AzNames = moveToFront(row.AzNames, azName)
			rowsByAz[azName] = append(rowsByAz[azName], row)
		}
		order := uint64(0)
		for round := 0; order < uint64(len(rows)); round++ {
			for _, azName := range azOrder {
				azRows := rowsByAz[azName]
				if round >= len(azRows) {
					continue
				}
				row := azRows[round]
				row.Order = order
				order++
				if err := txn.Insert(staticIpsTable, row); err != nil {
					return errors.WithStack(err)
				}
			}
		}
	}
	txn.Commit()
	return nil
}

// TakeNextIpForNetwork claims and returns the next unclaimed ip of the network, or nil if there are none left.
func (d *StaticIpDb) TakeNextIpForNetwork(jobNetwork *model.JobNetwork) (*StaticIpWithAzs, error) {
	return d.takeNext(jobNetwork.Name, func(*StaticIpWithAzs) bool { return true })
}

// TakeNextIpForNetworkAndAz claims and returns the next unclaimed ip of the network that may be placed in the given zone,
// or nil if there are none left.
func (d *StaticIpDb) TakeNextIpForNetworkAndAz(jobNetwork *model.JobNetwork, azName string) (*StaticIpWithAzs, error) {
	return d.takeNext(jobNetwork.Name, func(row *StaticIpWithAzs) bool { return row.AllowsAz(azName) })
}

// ClaimStaticIpForAzAndNetwork claims the next ip of the network that may be placed in the given zone.
// Unlike TakeNextIpForNetworkAndAz it fails if there is none.
func (d *StaticIpDb) ClaimStaticIpForAzAndNetwork(azName string, jobNetwork *model.JobNetwork) (netip.Addr, error) {
	row, err := d.TakeNextIpForNetworkAndAz(jobNetwork, azName)
	if err != nil {
		return netip.Addr{}, err
	}
	if row == nil {
		return netip.Addr{}, errors.WithStack(&placementerrors.ErrPlacementExhausted{
			Job:     d.jobName,
			Network: jobNetwork.Name,
			Az:      azName,
			Message: "no static ips available",
		})
	}
	return row.Ip, nil
}

// Stats returns the number of total and claimed ips per static network.
func (d *StaticIpDb) Stats() (map[string]NetworkStats, error) {
	rows, err := d.allRows()
	if err != nil {
		return nil, err
	}
	rv := make(map[string]NetworkStats, len(d.networks))
	for _, network := range d.networks {
		rv[network] = NetworkStats{}
	}
	for _, row := range rows {
		stats := rv[row.Network]
		stats.Total++
		if row.Claimed {
			stats.Claimed++
		}
		rv[row.Network] = stats
	}
	return rv, nil
}

// Networks returns the names of the static networks, in the order the job declares them.
func (d *StaticIpDb) Networks() []string {
	return slices.Clone(d.networks)
}

func (d *StaticIpDb) takeNext(network string, accept func(*StaticIpWithAzs) bool) (*StaticIpWithAzs, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()
	it, err := newUnclaimedIpIterator(txn, network)
	if err != nil {
		return nil, err
	}
	for row := it.next(); row != nil; row = it.next() {
		if !accept(row) {
			continue
		}
		row = row.copy()
		row.Claimed = true
		if err := txn.Insert(staticIpsTable, row); err != nil {
			return nil, errors.WithStack(err)
		}
		txn.Commit()
		return row.copy(), nil
	}
	return nil, nil
}

func (d *StaticIpDb) unclaimedRows(txn *memdb.Txn, network string) ([]*StaticIpWithAzs, error) {
	it, err := newUnclaimedIpIterator(txn, network)
	if err != nil {
		return nil, err
	}
	var rv []*StaticIpWithAzs
	for row := it.next(); row != nil; row = it.next() {
		rv = append(rv, row)
	}
	return rv, nil
}

// allRows returns every row, grouped by network in declaration order.
// Within a network, unclaimed ips come first in the order they would be handed out.
func (d *StaticIpDb) allRows() ([]*StaticIpWithAzs, error) {
	txn := d.db.Txn(false)
	var rv []*StaticIpWithAzs
	for _, network := range d.networks {
		for _, claimed := range []bool{false, true} {
			it, err := txn.LowerBound(staticIpsTable, orderIndex, network, claimed, uint64(0))
			if err != nil {
				return nil, errors.WithStack(err)
			}
			for obj := it.Next(); obj != nil; obj = it.Next() {
				row := obj.(*StaticIpWithAzs)
				if row.Network != network || row.Claimed != claimed {
					break
				}
				rv = append(rv, row.copy())
			}
		}
	}
	return rv, nil
}

// unclaimedIpIterator walks the unclaimed ips of a network in the order they should be handed out.
type unclaimedIpIterator struct {
	network string
	it      memdb.ResultIterator
}

func newUnclaimedIpIterator(txn *memdb.Txn, network string) (*unclaimedIpIterator, error) {
	it, err := txn.LowerBound(staticIpsTable, orderIndex, network, false, uint64(0))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &unclaimedIpIterator{
		network: network,
		it:      it,
	}, nil
}

// next returns the next unclaimed ip, or nil once every unclaimed ip of the network has been seen.
func (it *unclaimedIpIterator) next() *StaticIpWithAzs {
	obj := it.it.Next()
	if obj == nil {
		return nil
	}
	row, ok := obj.(*StaticIpWithAzs)
	if !ok {
		panic(fmt.Sprintf("expected *StaticIpWithAzs, but got %T", obj))
	}
	// The index sorts by network, then claimed.
	if row.Network != it.network || row.Claimed {
		return nil
	}
	return row
}

func leastLoadedAz(candidates []string, numIpsByAz map[string]int) string {
	if len(candidates) == 0 {
		return ""
	}
	rv := candidates[0]
	for _, azName := range candidates[1:] {
		if numIpsByAz[azName] < numIpsByAz[rv] {
			rv = azName
		}
	}
	return rv
}

func moveToFront(azNames []string, azName string) []string {
	i := slices.Index(azNames, azName)
	if i <= 0 {
		return azNames
	}
	rv := make([]string, 0, len(azNames))
	rv = append(rv, azName)
	rv = append(rv, azNames[:i]...)
	rv = append(rv, azNames[i+1:]...)
	return rv
}

func azNames(azs []*model.AvailabilityZone) []string {
	rv := make([]string, 0, len(azs))
	for _, az := range azs {
		if az != nil {
			rv = append(rv, az.Name)
		}
	}
	return rv
}

// staticIpDbSchema creates the database schema.
// This is a simple schema consisting of a single "staticips" table with indexes for fast lookups
func staticIpDbSchema() *memdb.DBSchema {
	indexes := make(map[string]*memdb.IndexSchema)
	indexes[idIndex] = &memdb.IndexSchema{
		Name:   idIndex, // lookup by primary key
		Unique: true,
		Indexer: &memdb.CompoundIndex{
			Indexes: []memdb.Indexer{
				&memdb.StringFieldIndex{Field: "Network"},
				&memdb.StringFieldIndex{Field: "IpKey"},
			},
		},
	}
	indexes[ipIndex] = &memdb.IndexSchema{
		Name:    ipIndex, // lookup an ip on all networks
		Unique:  false,
		Indexer: &memdb.StringFieldIndex{Field: "IpKey"},
	}
	indexes[orderIndex] = &memdb.IndexSchema{
		Name:   orderIndex, // iterate over the unclaimed ips of a network
		Unique: false,
		Indexer: &memdb.CompoundIndex{
			Indexes: []memdb.Indexer{
				&memdb.StringFieldIndex{Field: "Network"},
				&memdb.BoolFieldIndex{Field: "Claimed"},
				&memdb.UintFieldIndex{Field: "Order"},
			},
		},
	}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			staticIpsTable: {
				Name:    staticIpsTable,
				Indexes: indexes,
			},
		},
	}
}
