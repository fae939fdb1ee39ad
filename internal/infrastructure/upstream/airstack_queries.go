package upstream

const searchProfilesQuery = `query SearchProfiles($pattern: String!, $limit: Int!) {
  Socials(input: {
    filter: { profileName: { _regex: $pattern }, dappName: { _eq: farcaster } }
    blockchain: ethereum
    limit: $limit
  }) {
    Social { userId profileName }
  }
}`

const profileByAddressQuery = `query ProfileByAddress($address: Address!) {
  Socials(input: {
    filter: { userAssociatedAddresses: { _eq: $address }, dappName: { _eq: farcaster } }
    blockchain: ethereum
  }) {
    Social { userId profileName }
  }
}`

const accountDetailsQuery = `query AccountDetails($id: String!) {
  Socials(input: {
    filter: { userId: { _eq: $id }, dappName: { _eq: farcaster } }
    blockchain: ethereum
  }) {
    Social {
      userId
      profileName
      profileDisplayName
      profileImage
      userAssociatedAddresses
      connectedAddresses { address blockchain }
    }
  }
}`

const ensDomainQuery = `query ENSDomain($name: String!) {
  Domains(input: { filter: { name: { _eq: $name } }, blockchain: ethereum }) {
    Domain { name resolvedAddress }
  }
}`

const tokenBalancesQuery = `query TokenBalances($owners: [Identity!], $token: Address!, $blockchain: TokenBlockchain!) {
  TokenBalances(input: {
    filter: { owner: { _in: $owners }, tokenAddress: { _eq: $token } }
    blockchain: $blockchain
    limit: 200
  }) {
    TokenBalance { owner { identity } formattedAmount }
  }
}`

const tokenOwnershipQuery = `query TokenOwnership($owner: Identity!, $token: Address!, $blockchain: TokenBlockchain!) {
  TokenBalances(input: {
    filter: { owner: { _eq: $owner }, tokenAddress: { _eq: $token } }
    blockchain: $blockchain
    limit: 1
  }) {
    TokenBalance { amount }
  }
}`

const tokenTransfersQuery = `query TokenTransfers($from: Identity!, $token: Address!, $minAmount: Float!, $since: Time!, $limit: Int!, $blockchain: TokenBlockchain!) {
  TokenTransfers(input: {
    filter: {
      from: { _eq: $from }
      tokenAddress: { _eq: $token }
      type: { _eq: TRANSFER }
      formattedAmount: { _gt: $minAmount }
      blockTimestamp: { _gte: $since }
    }
    blockchain: $blockchain
    limit: $limit
    order: { blockTimestamp: ASC }
  }) {
    TokenTransfer { to { identity } formattedAmount blockTimestamp }
  }
}`
